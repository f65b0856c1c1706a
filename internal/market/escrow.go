package market

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/tradeyard/tradeyard/internal/models"
)

// escrowTransitions is the legal predecessor table. Anything not listed
// here is rejected with ErrInvalidState.
var escrowTransitions = map[models.EscrowStatus][]models.EscrowStatus{
	models.EscrowShipped:   {models.EscrowBuyerFunded},
	models.EscrowCompleted: {models.EscrowShipped},
	models.EscrowCancelled: {models.EscrowBuyerFunded, models.EscrowShipped},
}

func canTransition(from, to models.EscrowStatus) bool {
	return slices.Contains(escrowTransitions[to], from)
}

func (s *Service) findEscrow(id string) *models.Escrow {
	for i := range s.doc.Escrows {
		if s.doc.Escrows[i].ID == id {
			return &s.doc.Escrows[i]
		}
	}
	return nil
}

// OpenEscrow funds a trade against a listing: the buyer is debited
// quantity x unit price, the listing quantity is decremented and a new
// escrow is created holding the funds. A seller cannot buy their own
// listing.
func (s *Service) OpenEscrow(req models.OpenEscrowRequest) (models.Escrow, error) {
	if req.ListingID == "" || req.BuyerID == "" || req.Quantity <= 0 {
		return models.Escrow{}, ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var li *models.Listing
	for i := range s.doc.Listings {
		if s.doc.Listings[i].ID == req.ListingID {
			li = &s.doc.Listings[i]
			break
		}
	}
	if li == nil {
		return models.Escrow{}, ErrNotFound
	}
	if li.SellerID == req.BuyerID {
		return models.Escrow{}, ErrForbidden
	}
	if req.Quantity > li.Quantity {
		return models.Escrow{}, ErrInvalidArgument
	}
	amount := li.Price.Mul(decimal.NewFromInt(req.Quantity))
	buyer, ok := s.doc.Users[req.BuyerID]
	if !ok || buyer.Balance(li.Currency).LessThan(amount) {
		return models.Escrow{}, ErrInsufficientFunds
	}

	snap := s.doc.Clone()
	s.apply(req.BuyerID, models.TxTrade, li.Currency, amount, models.DirOut, "", false, "Escrow funded: "+li.Asset)
	li.Quantity -= req.Quantity
	now := s.now()
	esc := models.Escrow{
		ID:        s.newID("E"),
		ListingID: li.ID,
		Asset:     li.Asset,
		Amount:    amount,
		Currency:  li.Currency,
		Quantity:  req.Quantity,
		SellerID:  li.SellerID,
		BuyerID:   req.BuyerID,
		Status:    models.EscrowBuyerFunded,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.doc.Escrows = append(s.doc.Escrows, esc)
	if err := s.commit(snap); err != nil {
		return models.Escrow{}, err
	}
	return esc, nil
}

// MarkDelivered records that the seller has shipped or delivered the
// asset. Only the escrow's seller may call it.
func (s *Service) MarkDelivered(escrowID, callerID string) (models.Escrow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findEscrow(escrowID)
	if e == nil {
		return models.Escrow{}, ErrNotFound
	}
	if callerID != e.SellerID {
		return models.Escrow{}, ErrForbidden
	}
	if !canTransition(e.Status, models.EscrowShipped) {
		return models.Escrow{}, ErrInvalidState
	}
	snap := s.doc.Clone()
	e.Status = models.EscrowShipped
	e.UpdatedAt = s.now()
	if err := s.commit(snap); err != nil {
		return models.Escrow{}, err
	}
	return *e, nil
}

// ConfirmReceived releases the held funds to the seller and completes
// the trade. Only the escrow's buyer may call it.
func (s *Service) ConfirmReceived(escrowID, callerID string) (models.Escrow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findEscrow(escrowID)
	if e == nil {
		return models.Escrow{}, ErrNotFound
	}
	if callerID != e.BuyerID {
		return models.Escrow{}, ErrForbidden
	}
	if !canTransition(e.Status, models.EscrowCompleted) {
		return models.Escrow{}, ErrInvalidState
	}
	snap := s.doc.Clone()
	s.apply(e.SellerID, models.TxTrade, e.Currency, e.Amount, models.DirIn, "", false, "Escrow released: "+e.Asset)
	e.Status = models.EscrowCompleted
	e.UpdatedAt = s.now()
	if err := s.commit(snap); err != nil {
		return models.Escrow{}, err
	}
	return *e, nil
}

// CancelEscrow refunds the buyer and restores the listing quantity.
// Either party may cancel any time before completion.
func (s *Service) CancelEscrow(escrowID, callerID string) (models.Escrow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findEscrow(escrowID)
	if e == nil {
		return models.Escrow{}, ErrNotFound
	}
	if callerID != e.BuyerID && callerID != e.SellerID {
		return models.Escrow{}, ErrForbidden
	}
	if !canTransition(e.Status, models.EscrowCancelled) {
		return models.Escrow{}, ErrInvalidState
	}
	snap := s.doc.Clone()
	s.apply(e.BuyerID, models.TxTrade, e.Currency, e.Amount, models.DirIn, "", false, "Escrow refunded: "+e.Asset)
	for i := range s.doc.Listings {
		if s.doc.Listings[i].ID == e.ListingID {
			s.doc.Listings[i].Quantity += e.Quantity
			break
		}
	}
	e.Status = models.EscrowCancelled
	e.UpdatedAt = s.now()
	if err := s.commit(snap); err != nil {
		return models.Escrow{}, err
	}
	return *e, nil
}

// Escrows returns all escrows, oldest first.
func (s *Service) Escrows() []models.Escrow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.doc.Escrows)
}

// GetEscrow returns the escrow with the given id.
func (s *Service) GetEscrow(id string) (models.Escrow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.findEscrow(id); e != nil {
		return *e, nil
	}
	return models.Escrow{}, ErrNotFound
}

// OpenHoldings sums the held amounts of all non-terminal escrows in a
// currency. Together with user balances this is the conserved total.
func (s *Service) OpenHoldings(currency string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, e := range s.doc.Escrows {
		if !e.Status.Terminal() && e.Currency == currency {
			total = total.Add(e.Amount)
		}
	}
	return total
}
