package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/tradeyard/tradeyard/internal/market"
	"github.com/tradeyard/tradeyard/internal/mockapi"
	"github.com/tradeyard/tradeyard/internal/models"
	"github.com/tradeyard/tradeyard/internal/store"
)

type Handler struct {
	svc    *market.Service
	remote *mockapi.Service
}

func New(svc *market.Service, remote *mockapi.Service) *Handler {
	return &Handler{svc: svc, remote: remote}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/listings", func(r chi.Router) {
			r.Post("/", h.CreateListing)
			r.Get("/", h.ListListings)
			r.Get("/{listingID}", h.GetListing)
		})
		r.Route("/escrows", func(r chi.Router) {
			r.Post("/", h.OpenEscrow)
			r.Get("/", h.ListEscrows)
			r.Get("/{escrowID}", h.GetEscrow)
			r.Post("/{escrowID}/deliver", h.MarkDelivered)
			r.Post("/{escrowID}/confirm", h.ConfirmReceived)
			r.Post("/{escrowID}/cancel", h.CancelEscrow)
		})
		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", h.Wallet)
			r.Post("/deposit", h.Deposit)
			r.Post("/withdraw", h.Withdraw)
			r.Post("/transfer", h.Transfer)
			r.Get("/history", h.History)
			r.Delete("/history", h.ClearHistory)
		})
		r.Route("/remote", func(r chi.Router) {
			r.Post("/funds", h.RemoteAddFunds)
			r.Post("/offers", h.RemoteCreateOffer)
			r.Post("/login", h.RemoteLogin)
			r.Get("/balances", h.RemoteBalances)
		})
	})
}

func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req models.CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		js(w, http.StatusBadRequest, models.ErrResp{Error: "invalid JSON body"})
		return
	}
	h.defaultSeller(&req)
	l, err := h.svc.CreateListing(req)
	if err != nil {
		writeErr(w, "CreateListing", err)
		return
	}
	js(w, http.StatusCreated, l)
}

// defaultSeller fills in the local user when the request does not name
// a seller, the way the listing form does.
func (h *Handler) defaultSeller(req *models.CreateListingRequest) {
	if req.SellerID == "" {
		u := h.svc.LocalUser()
		req.SellerID = u.ID
		if req.SellerName == "" {
			req.SellerName = u.Name
		}
	}
}

func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	kind := models.ListingKind(r.URL.Query().Get("kind"))
	query := r.URL.Query().Get("q")
	listings := slices.Collect(h.svc.Listings(market.MatchListing(kind, query)))
	if listings == nil {
		listings = []models.Listing{}
	}
	js(w, http.StatusOK, listings)
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.GetListing(chi.URLParam(r, "listingID"))
	if err != nil {
		writeErr(w, "GetListing", err)
		return
	}
	js(w, http.StatusOK, l)
}

func (h *Handler) OpenEscrow(w http.ResponseWriter, r *http.Request) {
	var req models.OpenEscrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		js(w, http.StatusBadRequest, models.ErrResp{Error: "invalid JSON body"})
		return
	}
	if req.BuyerID == "" {
		req.BuyerID = store.LocalUserID
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	e, err := h.svc.OpenEscrow(req)
	if err != nil {
		writeErr(w, "OpenEscrow", err)
		return
	}
	js(w, http.StatusCreated, e)
}

func (h *Handler) ListEscrows(w http.ResponseWriter, r *http.Request) {
	js(w, http.StatusOK, h.svc.Escrows())
}

func (h *Handler) GetEscrow(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.GetEscrow(chi.URLParam(r, "escrowID"))
	if err != nil {
		writeErr(w, "GetEscrow", err)
		return
	}
	js(w, http.StatusOK, e)
}

type callerReq struct {
	CallerID string `json:"caller_id"`
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op string, fn func(escrowID, callerID string) (models.Escrow, error)) {
	var req callerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		js(w, http.StatusBadRequest, models.ErrResp{Error: "invalid JSON body"})
		return
	}
	if req.CallerID == "" {
		req.CallerID = store.LocalUserID
	}
	e, err := fn(chi.URLParam(r, "escrowID"), req.CallerID)
	if err != nil {
		writeErr(w, op, err)
		return
	}
	js(w, http.StatusOK, e)
}

func (h *Handler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "MarkDelivered", h.svc.MarkDelivered)
}

func (h *Handler) ConfirmReceived(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "ConfirmReceived", h.svc.ConfirmReceived)
}

func (h *Handler) CancelEscrow(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "CancelEscrow", h.svc.CancelEscrow)
}

func (h *Handler) Wallet(w http.ResponseWriter, r *http.Request) {
	js(w, http.StatusOK, struct {
		User  models.User        `json:"user"`
		Stats models.EscrowStats `json:"stats"`
	}{h.svc.LocalUser(), h.svc.Stats()})
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.walletOp(w, r, "Deposit", h.svc.Credit)
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.walletOp(w, r, "Withdraw", h.svc.Debit)
}

func (h *Handler) walletOp(w http.ResponseWriter, r *http.Request, op string, fn func(userID, currency string, amount decimal.Decimal, note string) (models.WalletTransaction, error)) {
	var req models.WalletOpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		js(w, http.StatusBadRequest, models.ErrResp{Error: "invalid JSON body"})
		return
	}
	if req.UserID == "" {
		req.UserID = store.LocalUserID
	}
	tx, err := fn(req.UserID, req.Currency, req.Amount, req.Note)
	if err != nil {
		writeErr(w, op, err)
		return
	}
	js(w, http.StatusCreated, tx)
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		js(w, http.StatusBadRequest, models.ErrResp{Error: "invalid JSON body"})
		return
	}
	if req.UserID == "" {
		req.UserID = store.LocalUserID
	}
	txs, err := h.svc.Transfer(req.UserID, req.FromCurrency, req.ToCurrency, req.Amount, req.Note)
	if err != nil {
		writeErr(w, "Transfer", err)
		return
	}
	js(w, http.StatusCreated, txs)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = store.LocalUserID
	}
	js(w, http.StatusOK, h.svc.History(userID))
}

func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearHistory(); err != nil {
		writeErr(w, "ClearHistory", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoteAddFunds goes through the simulated backend first, then
// credits the wallet once the remote call comes back successful.
func (h *Handler) RemoteAddFunds(w http.ResponseWriter, r *http.Request) {
	var req models.WalletOpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		js(w, http.StatusBadRequest, models.ErrResp{Error: "invalid JSON body"})
		return
	}
	if req.UserID == "" {
		req.UserID = store.LocalUserID
	}
	if req.Currency == "" {
		req.Currency = "NGN"
	}
	receipt, err := h.remote.AddFunds(r.Context(), req.Amount, req.Currency)
	if err != nil {
		writeErr(w, "RemoteAddFunds", err)
		return
	}
	if _, err := h.svc.Credit(req.UserID, req.Currency, req.Amount, receipt.Message); err != nil {
		writeErr(w, "RemoteAddFunds credit", err)
		return
	}
	js(w, http.StatusCreated, receipt)
}

// RemoteCreateOffer validates the draft against the simulated backend,
// then stores the listing locally.
func (h *Handler) RemoteCreateOffer(w http.ResponseWriter, r *http.Request) {
	var req models.CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		js(w, http.StatusBadRequest, models.ErrResp{Error: "invalid JSON body"})
		return
	}
	draft := mockapi.OfferDraft{
		Asset:  req.Asset,
		Amount: decimal.NewFromInt(req.Quantity),
		Price:  req.Price,
	}
	receipt, err := h.remote.CreateOffer(r.Context(), draft)
	if err != nil {
		writeErr(w, "RemoteCreateOffer", err)
		return
	}
	h.defaultSeller(&req)
	l, err := h.svc.CreateListing(req)
	if err != nil {
		writeErr(w, "RemoteCreateOffer store", err)
		return
	}
	js(w, http.StatusCreated, struct {
		Receipt mockapi.OfferReceipt `json:"receipt"`
		Listing models.Listing       `json:"listing"`
	}{receipt, l})
}

func (h *Handler) RemoteLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		js(w, http.StatusBadRequest, models.ErrResp{Error: "invalid JSON body"})
		return
	}
	session, err := h.remote.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeErr(w, "RemoteLogin", err)
		return
	}
	js(w, http.StatusOK, session)
}

func (h *Handler) RemoteBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.remote.GetBalances(r.Context())
	if err != nil {
		writeErr(w, "RemoteBalances", err)
		return
	}
	js(w, http.StatusOK, balances)
}

func writeErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, market.ErrInvalidArgument):
		js(w, http.StatusBadRequest, models.ErrResp{Error: err.Error()})
	case errors.Is(err, market.ErrInsufficientFunds):
		js(w, http.StatusBadRequest, models.ErrResp{Error: err.Error()})
	case errors.Is(err, market.ErrNotFound):
		js(w, http.StatusNotFound, models.ErrResp{Error: err.Error()})
	case errors.Is(err, market.ErrForbidden):
		js(w, http.StatusForbidden, models.ErrResp{Error: err.Error()})
	case errors.Is(err, market.ErrInvalidState):
		js(w, http.StatusConflict, models.ErrResp{Error: err.Error()})
	case errors.Is(err, mockapi.ErrServiceUnavailable):
		js(w, http.StatusServiceUnavailable, models.ErrResp{Error: err.Error()})
	case errors.Is(err, context.Canceled):
		// client went away mid-delay; nothing to report
	default:
		log.Printf("%s: %v", op, err)
		js(w, http.StatusInternalServerError, models.ErrResp{Error: "internal error"})
	}
}

func js(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("json encode: %v", err)
	}
}
