package commands

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tradeyard/tradeyard/internal/config"
	"github.com/tradeyard/tradeyard/internal/market"
	"github.com/tradeyard/tradeyard/internal/models"
	"github.com/tradeyard/tradeyard/internal/store"
)

var tradeQty int64

var tradeCmd = &cobra.Command{
	Use:   "trade [listing-id]",
	Short: "Walk one trade through the full escrow lifecycle",
	Long: `Open an escrow against a listing as the local user, mark it
delivered as the seller and confirm receipt as the buyer, printing the
wallet balances after each transition. Without a listing id the first
listing not owned by the local user is used. Run seed first.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		listingID := ""
		if len(args) == 1 {
			listingID = args[0]
		}
		runTrade(listingID)
	},
}

func init() {
	tradeCmd.Flags().Int64VarP(&tradeQty, "qty", "q", 1, "units to buy")
	rootCmd.AddCommand(tradeCmd)
}

func runTrade(listingID string) {
	godotenv.Load()
	cfg := config.Load()

	svc, err := market.New(store.New(cfg.DataFile))
	if err != nil {
		log.Fatalf("open market: %v", err)
	}

	var listing models.Listing
	if listingID != "" {
		listing, err = svc.GetListing(listingID)
		if err != nil {
			log.Fatalf("listing %s: %v", listingID, err)
		}
	} else {
		found := false
		for l := range svc.Listings(nil) {
			if l.SellerID != store.LocalUserID && l.Quantity >= tradeQty {
				listing, found = l, true
				break
			}
		}
		if !found {
			log.Fatalf("no listing to trade against; run `tradeyard seed` first")
		}
	}

	fmt.Printf("trading %d x %s at %s %s from %s\n",
		tradeQty, listing.Asset, listing.Currency, listing.Price, listing.SellerName)
	printBalance(svc, listing.Currency, listing.SellerID)

	esc, err := svc.OpenEscrow(models.OpenEscrowRequest{
		ListingID: listing.ID,
		BuyerID:   store.LocalUserID,
		Quantity:  tradeQty,
	})
	if err != nil {
		log.Fatalf("open escrow: %v", err)
	}
	fmt.Printf("escrow %s opened, %s %s held, status %s\n", esc.ID, esc.Currency, esc.Amount, esc.Status)
	printBalance(svc, listing.Currency, listing.SellerID)

	if esc, err = svc.MarkDelivered(esc.ID, esc.SellerID); err != nil {
		log.Fatalf("mark delivered: %v", err)
	}
	fmt.Printf("seller marked delivered, status %s\n", esc.Status)

	if esc, err = svc.ConfirmReceived(esc.ID, esc.BuyerID); err != nil {
		log.Fatalf("confirm received: %v", err)
	}
	fmt.Printf("buyer confirmed, status %s\n", esc.Status)
	printBalance(svc, listing.Currency, listing.SellerID)
}

func printBalance(svc *market.Service, currency, sellerID string) {
	buyer := svc.Balances(store.LocalUserID)[currency]
	seller := svc.Balances(sellerID)[currency]
	held := svc.OpenHoldings(currency)
	fmt.Printf("  buyer %s %s | seller %s %s | in escrow %s %s\n",
		currency, buyer, currency, seller, currency, held)
}
