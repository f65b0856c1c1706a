package market

import (
	"errors"
	"slices"
	"testing"

	"github.com/tradeyard/tradeyard/internal/models"
)

func TestCreateListingValidation(t *testing.T) {
	svc := newTestService(t)
	cases := []struct {
		name string
		req  models.CreateListingRequest
	}{
		{"empty asset", models.CreateListingRequest{Asset: "  ", Quantity: 1, Price: d("10"), SellerID: "s"}},
		{"zero quantity", models.CreateListingRequest{Asset: "BTC", Quantity: 0, Price: d("10"), SellerID: "s"}},
		{"zero price", models.CreateListingRequest{Asset: "BTC", Quantity: 1, Price: d("0"), SellerID: "s"}},
		{"negative price", models.CreateListingRequest{Asset: "BTC", Quantity: 1, Price: d("-3"), SellerID: "s"}},
		{"no seller", models.CreateListingRequest{Asset: "BTC", Quantity: 1, Price: d("10")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateListing(tc.req); !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("err = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestCreateListingDefaults(t *testing.T) {
	svc := newTestService(t)
	l, err := svc.CreateListing(models.CreateListingRequest{Asset: "Steam Card", Quantity: 1, Price: d("5000"), SellerID: "s"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if l.Kind != models.KindAsset || l.Currency != "NGN" {
		t.Fatalf("defaults not applied: %+v", l)
	}
	if l.ID == "" || l.CreatedAt.IsZero() {
		t.Fatalf("id/timestamp missing: %+v", l)
	}
}

func TestGetListingNotFound(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.GetListing("L-missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func seedListings(t *testing.T, svc *Service) {
	t.Helper()
	reqs := []models.CreateListingRequest{
		{Kind: models.KindCrypto, Asset: "BTC", Quantity: 2, Price: d("3000000"), Payment: "Bank transfer", SellerID: "s1", SellerName: "CryptoKing"},
		{Kind: models.KindCrypto, Asset: "USDT", Quantity: 500, Price: d("600"), Payment: "USDT transfer", SellerID: "s2", SellerName: "StableCoinBuyer"},
		{Kind: models.KindGiftCard, Asset: "Amazon Gift Card", Quantity: 3, Price: d("2100"), Payment: "Bank transfer", SellerID: "s3", SellerName: "CardHub"},
	}
	for _, r := range reqs {
		if _, err := svc.CreateListing(r); err != nil {
			t.Fatalf("seed %q: %v", r.Asset, err)
		}
	}
}

func TestListingsFilter(t *testing.T) {
	svc := newTestService(t)
	seedListings(t, svc)

	all := slices.Collect(svc.Listings(nil))
	if len(all) != 3 {
		t.Fatalf("all = %d, want 3", len(all))
	}

	crypto := slices.Collect(svc.Listings(MatchListing(models.KindCrypto, "")))
	if len(crypto) != 2 {
		t.Fatalf("crypto = %d, want 2", len(crypto))
	}

	// Case-insensitive substring over asset, payment, description and
	// seller name.
	king := slices.Collect(svc.Listings(MatchListing("", "cryptoKING")))
	if len(king) != 1 || king[0].Asset != "BTC" {
		t.Fatalf("query match = %+v", king)
	}

	bank := slices.Collect(svc.Listings(MatchListing(models.KindGiftCard, "bank")))
	if len(bank) != 1 || bank[0].Asset != "Amazon Gift Card" {
		t.Fatalf("kind+query match = %+v", bank)
	}

	none := slices.Collect(svc.Listings(MatchListing("", "dogecoin")))
	if len(none) != 0 {
		t.Fatalf("want no matches, got %+v", none)
	}
}

func TestListingsSequenceRestartable(t *testing.T) {
	svc := newTestService(t)
	seedListings(t, svc)

	seq := svc.Listings(nil)
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if len(first) != len(second) {
		t.Fatalf("restarted sequence differs: %d vs %d", len(first), len(second))
	}

	// Early break must stop the iteration cleanly.
	count := 0
	for range seq {
		count++
		break
	}
	if count != 1 {
		t.Fatalf("break stopped at %d", count)
	}
}
