package market

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tradeyard/tradeyard/internal/models"
	"github.com/tradeyard/tradeyard/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := New(store.New(""))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreditAppendsHistory(t *testing.T) {
	svc := newTestService(t)
	tx, err := svc.Credit(store.LocalUserID, "NGN", d("500"), "test deposit")
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if tx.Direction != models.DirIn || tx.Type != models.TxDeposit {
		t.Fatalf("unexpected tx %+v", tx)
	}
	if got := svc.Balances(store.LocalUserID)["NGN"]; !got.Equal(d("500")) {
		t.Fatalf("balance = %s, want 500", got)
	}
	hist := svc.History(store.LocalUserID)
	if len(hist) != 1 || hist[0].ID != tx.ID {
		t.Fatalf("history = %+v", hist)
	}
}

func TestCreditCreatesUserOnFirstAccess(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Credit("seller_abc", "NGN", d("100"), ""); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if got := svc.Balances("seller_abc")["NGN"]; !got.Equal(d("100")) {
		t.Fatalf("balance = %s, want 100", got)
	}
}

func TestCreditRejectsNonPositiveAmount(t *testing.T) {
	svc := newTestService(t)
	for _, amt := range []string{"0", "-5"} {
		if _, err := svc.Credit(store.LocalUserID, "NGN", d(amt), ""); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("credit %s: err = %v, want ErrInvalidArgument", amt, err)
		}
	}
}

func TestDebitInsufficientLeavesBalance(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Credit(store.LocalUserID, "NGN", d("300"), ""); err != nil {
		t.Fatalf("credit: %v", err)
	}
	_, err := svc.Debit(store.LocalUserID, "NGN", d("500"), "")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("debit: err = %v, want ErrInsufficientFunds", err)
	}
	if got := svc.Balances(store.LocalUserID)["NGN"]; !got.Equal(d("300")) {
		t.Fatalf("balance = %s, want 300 untouched", got)
	}
	if hist := svc.History(store.LocalUserID); len(hist) != 1 {
		t.Fatalf("failed debit must not append history, got %d entries", len(hist))
	}
}

func TestDebitUnknownUser(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Debit("nobody", "NGN", d("1"), ""); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
}

func TestTransferMovesBetweenCurrencies(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Credit(store.LocalUserID, "NGN", d("1500"), ""); err != nil {
		t.Fatalf("credit: %v", err)
	}
	txs, err := svc.Transfer(store.LocalUserID, "NGN", "USDT", d("600"), "swap")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("want 2 linked entries, got %d", len(txs))
	}
	if txs[0].GroupID == "" || txs[0].GroupID != txs[1].GroupID {
		t.Fatalf("legs not linked: %q vs %q", txs[0].GroupID, txs[1].GroupID)
	}
	if !txs[0].Internal || !txs[1].Internal {
		t.Fatal("transfer legs must be tagged internal")
	}
	bal := svc.Balances(store.LocalUserID)
	if !bal["NGN"].Equal(d("900")) || !bal["USDT"].Equal(d("600")) {
		t.Fatalf("balances = %v", bal)
	}
}

func TestTransferSameCurrencyRejected(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Credit(store.LocalUserID, "NGN", d("1000"), ""); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := svc.Transfer(store.LocalUserID, "NGN", "NGN", d("100"), ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestTransferInsufficient(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Transfer(store.LocalUserID, "NGN", "BTC", d("1"), ""); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
}

func TestClearHistoryKeepsBalances(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Credit(store.LocalUserID, "NGN", d("250"), ""); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := svc.ClearHistory(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if hist := svc.History(store.LocalUserID); len(hist) != 0 {
		t.Fatalf("history not cleared: %+v", hist)
	}
	if got := svc.Balances(store.LocalUserID)["NGN"]; !got.Equal(d("250")) {
		t.Fatalf("balance = %s, want 250", got)
	}
}

// Conservation law: after any sequence of operations that individually
// succeed, the sum of every balance plus every open escrow holding in a
// currency equals total credits minus total debits.
func TestConservationAcrossOperations(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Credit(store.LocalUserID, "NGN", d("1000000"), ""); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := svc.Debit(store.LocalUserID, "NGN", d("40000"), ""); err != nil {
		t.Fatalf("debit: %v", err)
	}

	l, err := svc.CreateListing(models.CreateListingRequest{
		Kind: models.KindGiftCard, Asset: "Steam Card", Quantity: 10,
		Price: d("2500"), SellerID: "seller_x", SellerName: "X",
	})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	esc, err := svc.OpenEscrow(models.OpenEscrowRequest{ListingID: l.ID, BuyerID: store.LocalUserID, Quantity: 4})
	if err != nil {
		t.Fatalf("open escrow: %v", err)
	}

	expected := d("960000") // 1,000,000 in minus 40,000 out

	sum := func() decimal.Decimal {
		total := svc.OpenHoldings("NGN")
		for _, id := range []string{store.LocalUserID, "seller_x"} {
			total = total.Add(svc.Balances(id)["NGN"])
		}
		return total
	}

	if got := sum(); !got.Equal(expected) {
		t.Fatalf("conserved total = %s, want %s (escrow open)", got, expected)
	}

	if _, err := svc.MarkDelivered(esc.ID, "seller_x"); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if _, err := svc.ConfirmReceived(esc.ID, store.LocalUserID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got := sum(); !got.Equal(expected) {
		t.Fatalf("conserved total = %s, want %s (escrow completed)", got, expected)
	}
}
