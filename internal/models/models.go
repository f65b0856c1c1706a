package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListingKind classifies what a listing offers for sale.
type ListingKind string

const (
	KindGiftCard ListingKind = "giftcard"
	KindCrypto   ListingKind = "crypto"
	KindAsset    ListingKind = "asset"
)

// EscrowStatus is the explicit state of an in-flight trade. Transitions
// are enforced by the escrow engine; status is never compared ad hoc.
type EscrowStatus string

const (
	EscrowBuyerFunded EscrowStatus = "BUYER_FUNDED"
	EscrowShipped     EscrowStatus = "SHIPPED"
	EscrowCompleted   EscrowStatus = "COMPLETED"
	EscrowCancelled   EscrowStatus = "CANCELLED"
)

// Terminal reports whether no further transition is possible.
func (s EscrowStatus) Terminal() bool {
	return s == EscrowCompleted || s == EscrowCancelled
}

type TxType string

const (
	TxDeposit  TxType = "DEPOSIT"
	TxWithdraw TxType = "WITHDRAW"
	TxTransfer TxType = "TRANSFER"
	TxTrade    TxType = "TRADE"
)

type TxDirection string

const (
	DirIn  TxDirection = "IN"
	DirOut TxDirection = "OUT"
)

// User owns a set of per-currency balances. Non-local sellers referenced
// by escrows are stored as ordinary users with their own balance maps.
type User struct {
	ID       string                     `json:"id"`
	Name     string                     `json:"name"`
	Email    string                     `json:"email,omitempty"`
	Balances map[string]decimal.Decimal `json:"balances"`
}

// Balance returns the user's balance for a currency, zero if the
// currency has never been touched.
func (u *User) Balance(currency string) decimal.Decimal {
	if u.Balances == nil {
		return decimal.Zero
	}
	return u.Balances[currency]
}

// Listing is an open offer to sell an asset. Price is per unit in the
// settlement currency. Listings are never hard-deleted; quantity is
// decremented as escrows are opened against them.
type Listing struct {
	ID          string          `json:"id"`
	Kind        ListingKind     `json:"kind"`
	Asset       string          `json:"asset"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Payment     string          `json:"payment"`
	Description string          `json:"description"`
	SellerID    string          `json:"seller_id"`
	SellerName  string          `json:"seller_name"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Escrow holds funds already debited from the buyer until the trade
// reaches a terminal state. Amount is quantity x unit price at the time
// the escrow was opened; asset and currency are denormalized from the
// listing so history survives listing changes.
type Escrow struct {
	ID        string          `json:"id"`
	ListingID string          `json:"listing_id"`
	Asset     string          `json:"asset"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Quantity  int64           `json:"quantity"`
	SellerID  string          `json:"seller_id"`
	BuyerID   string          `json:"buyer_id"`
	Status    EscrowStatus    `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// WalletTransaction is an immutable wallet history entry. Transfer legs
// share a GroupID and are tagged Internal.
type WalletTransaction struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Type      TxType          `json:"type"`
	Currency  string          `json:"currency"`
	Amount    decimal.Decimal `json:"amount"`
	Direction TxDirection     `json:"direction"`
	Internal  bool            `json:"internal,omitempty"`
	GroupID   string          `json:"group_id,omitempty"`
	Note      string          `json:"note,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// CreateListingRequest is the boundary input for a new listing.
type CreateListingRequest struct {
	Kind        ListingKind     `json:"kind"`
	Asset       string          `json:"asset"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Payment     string          `json:"payment"`
	Description string          `json:"description"`
	SellerID    string          `json:"seller_id"`
	SellerName  string          `json:"seller_name"`
}

type OpenEscrowRequest struct {
	ListingID string `json:"listing_id"`
	BuyerID   string `json:"buyer_id"`
	Quantity  int64  `json:"quantity"`
}

type WalletOpRequest struct {
	UserID   string          `json:"user_id"`
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	Note     string          `json:"note"`
}

type TransferRequest struct {
	UserID       string          `json:"user_id"`
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"note"`
}

// EscrowStats summarizes trade activity for the wallet dashboard.
type EscrowStats struct {
	Open      int `json:"open"`
	Completed int `json:"completed"`
}

type ErrResp struct {
	Error string `json:"error"`
}
