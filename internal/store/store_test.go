package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradeyard/tradeyard/internal/models"
)

func TestLoadMissingFileSeedsLocalUser(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent.json"))
	doc, err := st.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	u := doc.Users[LocalUserID]
	if u == nil || u.Name != "You" {
		t.Fatalf("local user not seeded: %+v", doc.Users)
	}
	if !u.Balance("NGN").Equal(decimal.Zero) {
		t.Fatalf("NGN balance = %s, want 0", u.Balance("NGN"))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	st := New(path)

	doc := NewDocument()
	doc.Users[LocalUserID].Balances["NGN"] = decimal.NewFromInt(993700)
	doc.Listings = append(doc.Listings, models.Listing{
		ID: "L-1", Kind: models.KindGiftCard, Asset: "Amazon Gift Card",
		Quantity: 3, Price: decimal.NewFromInt(2100), Currency: "NGN",
		SellerID: "seller_x", CreatedAt: time.Now().UTC(),
	})
	doc.Escrows = append(doc.Escrows, models.Escrow{
		ID: "E-1", ListingID: "L-1", Asset: "Amazon Gift Card",
		Amount: decimal.NewFromInt(6300), Currency: "NGN", Quantity: 3,
		SellerID: "seller_x", BuyerID: LocalUserID,
		Status: models.EscrowBuyerFunded,
	})
	doc.WalletTx = append(doc.WalletTx, models.WalletTransaction{
		ID: "W-1", UserID: LocalUserID, Type: models.TxTrade,
		Currency: "NGN", Amount: decimal.NewFromInt(6300),
		Direction: models.DirOut,
	})

	if err := st.Save(doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := st.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.Users[LocalUserID].Balance("NGN").Equal(decimal.NewFromInt(993700)) {
		t.Fatalf("balance = %s", got.Users[LocalUserID].Balance("NGN"))
	}
	if len(got.Listings) != 1 || got.Listings[0].ID != "L-1" {
		t.Fatalf("listings = %+v", got.Listings)
	}
	if len(got.Escrows) != 1 || got.Escrows[0].Status != models.EscrowBuyerFunded {
		t.Fatalf("escrows = %+v", got.Escrows)
	}
	if len(got.WalletTx) != 1 || !got.WalletTx[0].Amount.Equal(decimal.NewFromInt(6300)) {
		t.Fatalf("wallet tx = %+v", got.WalletTx)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	st := New(filepath.Join(dir, "doc.json"))
	if err := st.Save(NewDocument()); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "doc.json" {
		t.Fatalf("dir = %v, want only doc.json", entries)
	}
}

func TestMemoryModeNoFile(t *testing.T) {
	st := New("")
	doc, err := st.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := st.Save(doc); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	doc := NewDocument()
	doc.Listings = append(doc.Listings, models.Listing{ID: "L-1", Quantity: 3})
	c := doc.Clone()

	c.Users[LocalUserID].Balances["NGN"] = decimal.NewFromInt(99)
	c.Listings[0].Quantity = 0
	c.Escrows = append(c.Escrows, models.Escrow{ID: "E-1"})

	if !doc.Users[LocalUserID].Balance("NGN").Equal(decimal.Zero) {
		t.Fatal("clone shares balance map with original")
	}
	if doc.Listings[0].Quantity != 3 {
		t.Fatal("clone shares listing backing array with original")
	}
	if len(doc.Escrows) != 0 {
		t.Fatal("clone shares escrow slice with original")
	}
}
