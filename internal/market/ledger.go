package market

import (
	"github.com/shopspring/decimal"

	"github.com/tradeyard/tradeyard/internal/models"
)

// apply mutates a balance and appends the matching history entry.
// Callers hold the mutex, have validated, and have snapshotted.
func (s *Service) apply(userID string, typ models.TxType, currency string, amount decimal.Decimal, dir models.TxDirection, groupID string, internal bool, note string) models.WalletTransaction {
	u := s.user(userID)
	bal := u.Balance(currency)
	if dir == models.DirIn {
		u.Balances[currency] = bal.Add(amount)
	} else {
		u.Balances[currency] = bal.Sub(amount)
	}
	tx := models.WalletTransaction{
		ID:        s.newID("W"),
		UserID:    userID,
		Type:      typ,
		Currency:  currency,
		Amount:    amount,
		Direction: dir,
		Internal:  internal,
		GroupID:   groupID,
		Note:      note,
		CreatedAt: s.now(),
	}
	s.doc.WalletTx = append(s.doc.WalletTx, tx)
	return tx
}

func checkWalletOp(userID, currency string, amount decimal.Decimal) error {
	if userID == "" || currency == "" || !amount.IsPositive() {
		return ErrInvalidArgument
	}
	return nil
}

// Credit adds amount to the user's balance for currency. The demo trust
// model never rejects a credit beyond input validation; the user record
// is created on first access.
func (s *Service) Credit(userID, currency string, amount decimal.Decimal, note string) (models.WalletTransaction, error) {
	if err := checkWalletOp(userID, currency, amount); err != nil {
		return models.WalletTransaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.doc.Clone()
	tx := s.apply(userID, models.TxDeposit, currency, amount, models.DirIn, "", false, note)
	if err := s.commit(snap); err != nil {
		return models.WalletTransaction{}, err
	}
	return tx, nil
}

// Debit subtracts amount from the user's balance for currency, failing
// with ErrInsufficientFunds when the balance cannot cover it.
func (s *Service) Debit(userID, currency string, amount decimal.Decimal, note string) (models.WalletTransaction, error) {
	if err := checkWalletOp(userID, currency, amount); err != nil {
		return models.WalletTransaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.doc.Users[userID]
	if !ok || u.Balance(currency).LessThan(amount) {
		return models.WalletTransaction{}, ErrInsufficientFunds
	}
	snap := s.doc.Clone()
	tx := s.apply(userID, models.TxWithdraw, currency, amount, models.DirOut, "", false, note)
	if err := s.commit(snap); err != nil {
		return models.WalletTransaction{}, err
	}
	return tx, nil
}

// Transfer moves amount between two of the user's own currency
// balances as one unit, appending a linked Out+In pair tagged Internal.
func (s *Service) Transfer(userID, fromCurrency, toCurrency string, amount decimal.Decimal, note string) ([]models.WalletTransaction, error) {
	if err := checkWalletOp(userID, fromCurrency, amount); err != nil {
		return nil, err
	}
	if toCurrency == "" || fromCurrency == toCurrency {
		return nil, ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.doc.Users[userID]
	if !ok || u.Balance(fromCurrency).LessThan(amount) {
		return nil, ErrInsufficientFunds
	}
	snap := s.doc.Clone()
	gid := s.newID("T")
	out := s.apply(userID, models.TxTransfer, fromCurrency, amount, models.DirOut, gid, true, "To "+toCurrency+noteSuffix(note))
	in := s.apply(userID, models.TxTransfer, toCurrency, amount, models.DirIn, gid, true, "From "+fromCurrency+noteSuffix(note))
	if err := s.commit(snap); err != nil {
		return nil, err
	}
	return []models.WalletTransaction{out, in}, nil
}

func noteSuffix(note string) string {
	if note == "" {
		return ""
	}
	return " - " + note
}
