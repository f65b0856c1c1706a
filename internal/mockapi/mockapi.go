// Package mockapi simulates the remote backend the prototype never
// had: every call sleeps for a random interval inside a configured
// window and may fail with a generic unavailable error before any input
// is looked at. It holds no state; real mutations happen in the market
// service after a call comes back successfully.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradeyard/tradeyard/internal/market"
)

var ErrServiceUnavailable = errors.New("service unavailable")

const (
	DefaultLatencyMin  = 800 * time.Millisecond
	DefaultLatencyMax  = 2500 * time.Millisecond
	DefaultFailureRate = 0.1
)

type Service struct {
	latencyMin  time.Duration
	latencyMax  time.Duration
	failureRate float64

	mu   sync.Mutex
	rand *rand.Rand
	now  func() time.Time
}

func New(latencyMin, latencyMax time.Duration, failureRate float64) *Service {
	return &Service{
		latencyMin:  latencyMin,
		latencyMax:  latencyMax,
		failureRate: failureRate,
		rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
	}
}

// SetRandSource replaces the random source, which tests use to pin the
// failure draw.
func (s *Service) SetRandSource(src rand.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rand = rand.New(src)
}

// delay sleeps for a uniform draw from the latency window. The caller
// may abandon the wait through ctx; nothing has been mutated yet.
func (s *Service) delay(ctx context.Context) error {
	d := s.latencyMin
	if window := s.latencyMax - s.latencyMin; window > 0 {
		s.mu.Lock()
		d += time.Duration(s.rand.Int63n(int64(window) + 1))
		s.mu.Unlock()
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// maybeFail fails with ErrServiceUnavailable at the configured rate.
// Input validation runs before this draw, so malformed requests are
// always reported as such.
func (s *Service) maybeFail() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rand.Float64() < s.failureRate {
		return fmt.Errorf("%w: please try again later", ErrServiceUnavailable)
	}
	return nil
}

func (s *Service) serverID(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return prefix + "-" + strconv.Itoa(s.rand.Intn(10000))
}

// FundsReceipt is the success payload of AddFunds.
type FundsReceipt struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
}

// AddFunds simulates a deposit request against the remote backend.
func (s *Service) AddFunds(ctx context.Context, amount decimal.Decimal, currency string) (FundsReceipt, error) {
	if err := s.delay(ctx); err != nil {
		return FundsReceipt{}, err
	}
	if !amount.IsPositive() || currency == "" {
		return FundsReceipt{}, fmt.Errorf("%w: amount must be greater than 0", market.ErrInvalidArgument)
	}
	if err := s.maybeFail(); err != nil {
		return FundsReceipt{}, err
	}
	return FundsReceipt{
		ID:        s.serverID("DEP"),
		Amount:    amount,
		Currency:  currency,
		Message:   fmt.Sprintf("Successfully deposited %s %s", amount, currency),
		Timestamp: s.now(),
	}, nil
}

// OfferDraft is the input of CreateOffer.
type OfferDraft struct {
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
	Price  decimal.Decimal `json:"price"`
}

type OfferReceipt struct {
	OfferID   string    `json:"offer_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// CreateOffer simulates submitting a new offer to the remote backend.
func (s *Service) CreateOffer(ctx context.Context, draft OfferDraft) (OfferReceipt, error) {
	if err := s.delay(ctx); err != nil {
		return OfferReceipt{}, err
	}
	switch {
	case strings.TrimSpace(draft.Asset) == "":
		return OfferReceipt{}, fmt.Errorf("%w: asset name is required", market.ErrInvalidArgument)
	case !draft.Amount.IsPositive():
		return OfferReceipt{}, fmt.Errorf("%w: amount must be positive", market.ErrInvalidArgument)
	case !draft.Price.IsPositive():
		return OfferReceipt{}, fmt.Errorf("%w: price must be positive", market.ErrInvalidArgument)
	}
	if err := s.maybeFail(); err != nil {
		return OfferReceipt{}, err
	}
	return OfferReceipt{
		OfferID:   s.serverID("OFF"),
		Message:   "Offer created successfully",
		Timestamp: s.now(),
	}, nil
}

type Session struct {
	Token string      `json:"token"`
	User  SessionUser `json:"user"`
}

type SessionUser struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Login simulates credential checking and hands back a demo session.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	if err := s.delay(ctx); err != nil {
		return Session{}, err
	}
	if email == "" || password == "" {
		return Session{}, fmt.Errorf("%w: credentials missing", market.ErrInvalidArgument)
	}
	if !strings.Contains(email, "@") {
		return Session{}, fmt.Errorf("%w: invalid email format", market.ErrInvalidArgument)
	}
	if err := s.maybeFail(); err != nil {
		return Session{}, err
	}
	return Session{
		Token: "mock-jwt-token-" + strconv.FormatInt(s.now().UnixMilli(), 10),
		User:  SessionUser{ID: 1, Name: "Demo User", Email: email},
	}, nil
}

// GetBalances returns the fixed demo balance sheet the prototype shows
// while the real wallet is empty.
func (s *Service) GetBalances(ctx context.Context) (map[string]decimal.Decimal, error) {
	if err := s.delay(ctx); err != nil {
		return nil, err
	}
	if err := s.maybeFail(); err != nil {
		return nil, err
	}
	return map[string]decimal.Decimal{
		"NGN":  decimal.NewFromInt(150000),
		"BTC":  decimal.RequireFromString("0.045"),
		"USDT": decimal.RequireFromString("120.50"),
	}, nil
}
