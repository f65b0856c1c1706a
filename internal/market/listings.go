package market

import (
	"iter"
	"slices"
	"strings"

	"github.com/tradeyard/tradeyard/internal/models"
)

// CreateListing validates and stores a new offer. Kind defaults to the
// generic asset kind and the settlement currency to NGN, matching the
// demo marketplace.
func (s *Service) CreateListing(req models.CreateListingRequest) (models.Listing, error) {
	req.Asset = strings.TrimSpace(req.Asset)
	if req.Asset == "" || req.Quantity <= 0 || !req.Price.IsPositive() || req.SellerID == "" {
		return models.Listing{}, ErrInvalidArgument
	}
	if req.Kind == "" {
		req.Kind = models.KindAsset
	}
	if req.Currency == "" {
		req.Currency = "NGN"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.doc.Clone()
	l := models.Listing{
		ID:          s.newID("L"),
		Kind:        req.Kind,
		Asset:       req.Asset,
		Quantity:    req.Quantity,
		Price:       req.Price,
		Currency:    req.Currency,
		Payment:     req.Payment,
		Description: req.Description,
		SellerID:    req.SellerID,
		SellerName:  req.SellerName,
		CreatedAt:   s.now(),
	}
	s.doc.Listings = append(s.doc.Listings, l)
	if err := s.commit(snap); err != nil {
		return models.Listing{}, err
	}
	return l, nil
}

// GetListing returns the listing with the given id.
func (s *Service) GetListing(id string) (models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.doc.Listings {
		if l.ID == id {
			return l, nil
		}
	}
	return models.Listing{}, ErrNotFound
}

// Listings returns a restartable sequence of listings matching pred, in
// creation order. A nil pred matches everything. The sequence iterates
// a snapshot, so ranging it never holds the service lock.
func (s *Service) Listings(pred func(models.Listing) bool) iter.Seq[models.Listing] {
	return func(yield func(models.Listing) bool) {
		s.mu.Lock()
		snapshot := slices.Clone(s.doc.Listings)
		s.mu.Unlock()
		for _, l := range snapshot {
			if pred != nil && !pred(l) {
				continue
			}
			if !yield(l) {
				return
			}
		}
	}
}

// MatchListing builds the filter the offer pages use: an exact kind
// match plus a case-insensitive substring search over asset, payment
// method, description and seller name. Empty arguments match all.
func MatchListing(kind models.ListingKind, query string) func(models.Listing) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	return func(l models.Listing) bool {
		if kind != "" && l.Kind != kind {
			return false
		}
		if query == "" {
			return true
		}
		for _, field := range []string{l.Asset, l.Payment, l.Description, l.SellerName} {
			if strings.Contains(strings.ToLower(field), query) {
				return true
			}
		}
		return false
	}
}
