// Package store persists the whole marketplace state as a single JSON
// document. Users, listings, escrows and wallet history are written
// together in one atomic rename so a crash between operations can never
// leave money half-moved between tables.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/tradeyard/tradeyard/internal/models"
)

// LocalUserID identifies the single real actor of this prototype. The
// record is created on first load if absent.
const LocalUserID = "user_me"

// Document is the one persisted unit of state.
type Document struct {
	Users    map[string]*models.User    `json:"users"`
	Listings []models.Listing           `json:"listings"`
	Escrows  []models.Escrow            `json:"escrows"`
	WalletTx []models.WalletTransaction `json:"wallet_tx"`
}

// NewDocument returns an empty document seeded with the local user.
// The starting balances mirror the demo wallet: zero NGN, BTC and USDT.
func NewDocument() *Document {
	return &Document{
		Users: map[string]*models.User{
			LocalUserID: {
				ID:   LocalUserID,
				Name: "You",
				Balances: map[string]decimal.Decimal{
					"NGN":  decimal.Zero,
					"BTC":  decimal.Zero,
					"USDT": decimal.Zero,
				},
			},
		},
	}
}

// Clone deep-copies the document. Callers snapshot before mutating so a
// failed persist can roll the in-memory state back.
func (d *Document) Clone() *Document {
	c := &Document{
		Users:    make(map[string]*models.User, len(d.Users)),
		Listings: slices.Clone(d.Listings),
		Escrows:  slices.Clone(d.Escrows),
		WalletTx: slices.Clone(d.WalletTx),
	}
	for id, u := range d.Users {
		cu := *u
		cu.Balances = maps.Clone(u.Balances)
		c.Users[id] = &cu
	}
	return c
}

// Store reads and writes the document. An empty path runs in memory
// only, which tests use.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the document from disk, returning a fresh seeded document
// when the file does not exist yet.
func (s *Store) Load() (*Document, error) {
	if s.path == "" {
		return NewDocument(), nil
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewDocument(), nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if doc.Users == nil {
		doc.Users = map[string]*models.User{}
	}
	if _, ok := doc.Users[LocalUserID]; !ok {
		doc.Users[LocalUserID] = NewDocument().Users[LocalUserID]
	}
	return &doc, nil
}

// Save writes the document atomically: marshal, write a sibling temp
// file, fsync, rename over the target.
func (s *Store) Save(doc *Document) error {
	if s.path == "" {
		return nil
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".tradeyard-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
