// Package market implements the marketplace core: the wallet ledger,
// the listing registry and the escrow engine. All three mutate one
// shared document under a single mutex; every mutating operation is
// all-or-nothing and persisted before it returns.
package market

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradeyard/tradeyard/internal/models"
	"github.com/tradeyard/tradeyard/internal/store"
)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidState      = errors.New("invalid state")
)

// Service owns the marketplace document. Handlers receive it by
// injection; nothing in this package reads ambient globals.
type Service struct {
	mu  sync.Mutex
	st  *store.Store
	doc *store.Document

	now   func() time.Time
	newID func(prefix string) string
}

func New(st *store.Store) (*Service, error) {
	doc, err := st.Load()
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return &Service{
		st:    st,
		doc:   doc,
		now:   time.Now,
		newID: newID,
	}, nil
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// user returns the record for id, creating it on first access. Callers
// hold the mutex and have already snapshotted.
func (s *Service) user(id string) *models.User {
	u, ok := s.doc.Users[id]
	if !ok {
		u = &models.User{
			ID:       id,
			Name:     id,
			Balances: map[string]decimal.Decimal{},
		}
		s.doc.Users[id] = u
	}
	if u.Balances == nil {
		u.Balances = map[string]decimal.Decimal{}
	}
	return u
}

// commit persists the document, restoring snap on failure so the
// caller's mutation never half-applies.
func (s *Service) commit(snap *store.Document) error {
	if err := s.st.Save(s.doc); err != nil {
		s.doc = snap
		return fmt.Errorf("persist: %w", err)
	}
	return nil
}

// LocalUser returns a copy of the single real actor's record.
func (s *Service) LocalUser() models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.doc.Users[store.LocalUserID]
	cu := *u
	cu.Balances = make(map[string]decimal.Decimal, len(u.Balances))
	for c, b := range u.Balances {
		cu.Balances[c] = b
	}
	return cu
}

// Balances returns a copy of a user's balance map. Unknown users have
// no balances yet.
func (s *Service) Balances(userID string) map[string]decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]decimal.Decimal{}
	if u, ok := s.doc.Users[userID]; ok {
		for c, b := range u.Balances {
			out[c] = b
		}
	}
	return out
}

// History returns a user's wallet transactions, newest first.
func (s *Service) History(userID string) []models.WalletTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.WalletTransaction{}
	for i := len(s.doc.WalletTx) - 1; i >= 0; i-- {
		if t := s.doc.WalletTx[i]; t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// ClearHistory wipes the wallet transaction log. Balances and escrows
// are untouched; this mirrors the wallet page's bulk wipe.
func (s *Service) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.doc.Clone()
	s.doc.WalletTx = nil
	return s.commit(snap)
}

// Stats counts open and completed escrows for the wallet dashboard.
func (s *Service) Stats() models.EscrowStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st models.EscrowStats
	for _, e := range s.doc.Escrows {
		switch {
		case e.Status == models.EscrowCompleted:
			st.Completed++
		case !e.Status.Terminal():
			st.Open++
		}
	}
	return st
}
