package commands

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tradeyard/tradeyard/internal/config"
	"github.com/tradeyard/tradeyard/internal/handler"
	"github.com/tradeyard/tradeyard/internal/market"
	"github.com/tradeyard/tradeyard/internal/mockapi"
	"github.com/tradeyard/tradeyard/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Tradeyard HTTP server",
	Long: `Start the HTTP server exposing the listing registry, the escrow
engine, the wallet ledger and the simulated remote backend under
/api/v1.`,
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer() {
	godotenv.Load()
	cfg := config.Load()

	st := store.New(cfg.DataFile)
	svc, err := market.New(st)
	if err != nil {
		log.Fatalf("open market: %v", err)
	}
	remote := mockapi.New(cfg.MockLatencyMin, cfg.MockLatencyMax, cfg.MockFailureRate)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	h := handler.New(svc, remote)
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Println("shutting down...")
		sc, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(sc); err != nil {
			log.Fatalf("shutdown: %v", err)
		}
	}()

	banner := figure.NewColorFigure("Tradeyard", "puffy", "green", true)
	banner.Print()

	log.Printf("tradeyard listening on %s (data file %s)", cfg.ListenAddr, cfg.DataFile)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server: %v", err)
	}
	log.Println("server stopped")
}
