package commands

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tradeyard/tradeyard/internal/config"
	"github.com/tradeyard/tradeyard/internal/market"
	"github.com/tradeyard/tradeyard/internal/models"
	"github.com/tradeyard/tradeyard/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo listings and starting funds",
	Long: `Create the demo marketplace: a couple of third-party listings to
trade against and an NGN balance for the local wallet. Running seed
twice is a no-op once listings exist.`,
	Run: func(cmd *cobra.Command, args []string) {
		runSeed()
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

var demoListings = []models.CreateListingRequest{
	{
		Kind:        models.KindCrypto,
		Asset:       "BTC",
		Quantity:    2,
		Price:       decimal.NewFromInt(3000000),
		Payment:     "Bank transfer",
		Description: "Send clear wallet screenshots.",
		SellerID:    "seller_cryptoking",
		SellerName:  "CryptoKing",
	},
	{
		Kind:        models.KindCrypto,
		Asset:       "USDT",
		Quantity:    500,
		Price:       decimal.NewFromInt(600),
		Payment:     "USDT transfer",
		Description: "Only USDT ERC20 supported.",
		SellerID:    "seller_stable",
		SellerName:  "StableCoinBuyer",
	},
	{
		Kind:        models.KindGiftCard,
		Asset:       "Amazon Gift Card $100",
		Quantity:    3,
		Price:       decimal.NewFromInt(2100),
		Payment:     "Bank transfer",
		Description: "Physical card, code revealed after payment.",
		SellerID:    "seller_cards",
		SellerName:  "CardHub",
	},
}

func runSeed() {
	godotenv.Load()
	cfg := config.Load()

	svc, err := market.New(store.New(cfg.DataFile))
	if err != nil {
		log.Fatalf("open market: %v", err)
	}

	existing := 0
	for range svc.Listings(nil) {
		existing++
	}
	if existing > 0 {
		log.Printf("seed: %d listings already present, nothing to do", existing)
		return
	}

	for _, req := range demoListings {
		l, err := svc.CreateListing(req)
		if err != nil {
			log.Fatalf("seed listing %q: %v", req.Asset, err)
		}
		log.Printf("seeded listing %s: %s x%d at %s %s", l.ID, l.Asset, l.Quantity, l.Currency, l.Price)
	}

	if _, err := svc.Credit(store.LocalUserID, "NGN", decimal.NewFromInt(1000000), "Demo starting funds"); err != nil {
		log.Fatalf("seed funds: %v", err)
	}
	log.Printf("seeded NGN 1,000,000 for %s (data file %s)", store.LocalUserID, cfg.DataFile)
}
