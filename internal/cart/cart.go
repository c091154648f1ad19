// Package cart owns the buyer's staging area: the in-progress line items and
// the single merchant they belong to. All items of a non-empty cart share
// the bound merchant; switching merchants requires an explicit
// confirm-and-clear, never a silent overwrite.
package cart

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"hatid/internal/kv"
	"hatid/internal/models"
)

var (
	// ErrMerchantConflict is raised when an item from another merchant is
	// added to a non-empty cart. The caller prompts for confirmation and,
	// only on explicit confirm, calls SwitchMerchant before retrying.
	ErrMerchantConflict = errors.New("cart: item belongs to a different merchant")
	// ErrUnknownItem is returned for increments/decrements of absent rows.
	ErrUnknownItem = errors.New("cart: item not in cart")
	// ErrProvisionalItem is returned when checkout is attempted while a row
	// still awaits price confirmation.
	ErrProvisionalItem = errors.New("cart: cart contains unconfirmed items")
)

// Store is the session-scoped staging cart. In-memory state is authoritative
// and mutated synchronously; every mutation is mirrored to the persistence
// gateway in the background so a reload rehydrates the same cart.
type Store struct {
	buyerID string
	gateway kv.Store

	mu           sync.Mutex
	merchant     *models.Merchant
	items        []models.LineItem
	panelVisible bool
	rev          uint64

	persistMu sync.Mutex
	persisted uint64
}

func New(buyerID string, gateway kv.Store) *Store {
	return &Store{buyerID: buyerID, gateway: gateway}
}

func cartKey(buyerID string) string     { return "cart:" + buyerID }
func merchantKey(buyerID string) string { return "merchant:" + buyerID }
func panelKey(buyerID string) string    { return "panel:" + buyerID }

// Rehydrate loads the persisted cart, selected merchant and panel flag.
// Absent keys mean a fresh session. A cart without its merchant is stale and
// is dropped rather than resurrected against an unknown merchant.
func (s *Store) Rehydrate(ctx context.Context) error {
	var merchant models.Merchant
	merchantFound := true
	if err := s.gateway.Get(ctx, merchantKey(s.buyerID), &merchant); err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			return err
		}
		merchantFound = false
	}

	var items []models.LineItem
	if err := s.gateway.Get(ctx, cartKey(s.buyerID), &items); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return err
	}

	var panel bool
	if err := s.gateway.Get(ctx, panelKey(s.buyerID), &panel); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if merchantFound {
		s.merchant = &merchant
		s.items = items
	} else {
		s.merchant = nil
		s.items = nil
	}
	s.panelVisible = panel && merchantFound && len(items) > 0
	return nil
}

// AddItem upserts an item for the given merchant. If the cart already holds
// items for a different merchant, nothing changes and ErrMerchantConflict is
// returned.
func (s *Store) AddItem(item models.LineItem, merchant models.Merchant) error {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.merchant != nil && s.merchant.ID != merchant.ID && len(s.items) > 0 {
		return ErrMerchantConflict
	}
	s.merchant = &merchant

	for i := range s.items {
		if s.items[i].ItemID == item.ItemID {
			s.items[i].Quantity += item.Quantity
			if !item.Provisional {
				s.items[i].Provisional = false
				s.items[i].UnitPrice = item.UnitPrice
			}
			s.mirrorLocked()
			return nil
		}
	}
	s.items = append(s.items, item)
	s.mirrorLocked()
	return nil
}

// SwitchMerchant is the confirmed half of the merchant-conflict flow: it
// empties the staged items and binds the new merchant in one step.
func (s *Store) SwitchMerchant(merchant models.Merchant) {
	s.mu.Lock()
	s.items = nil
	s.merchant = &merchant
	s.mirrorLocked()
	s.mu.Unlock()
}

// ConfirmItem promotes a provisional row with the server-confirmed price.
func (s *Store) ConfirmItem(itemID string, unitPrice float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ItemID == itemID {
			s.items[i].Provisional = false
			s.items[i].UnitPrice = unitPrice
			s.mirrorLocked()
			return nil
		}
	}
	return ErrUnknownItem
}

// Increment raises a row's quantity by one.
func (s *Store) Increment(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ItemID == itemID {
			s.items[i].Quantity++
			s.mirrorLocked()
			return nil
		}
	}
	return ErrUnknownItem
}

// Decrement lowers a row's quantity by one; at quantity 1 the row is removed
// entirely, never left at zero.
func (s *Store) Decrement(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ItemID == itemID {
			if s.items[i].Quantity <= 1 {
				s.items = append(s.items[:i], s.items[i+1:]...)
			} else {
				s.items[i].Quantity--
			}
			s.mirrorLocked()
			return nil
		}
	}
	return ErrUnknownItem
}

// BulkRemove drops every row whose id is in ids; unknown ids are ignored.
func (s *Store) BulkRemove(ids []string) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	kept := s.items[:0]
	for _, item := range s.items {
		if !drop[item.ItemID] {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.mirrorLocked()
	s.mu.Unlock()
}

// Total sums unit price times quantity over all rows.
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, item := range s.items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// Items returns a copy of the staged rows.
func (s *Store) Items() []models.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Len reports the number of staged rows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Merchant returns the bound merchant, if any.
func (s *Store) Merchant() (models.Merchant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.merchant == nil {
		return models.Merchant{}, false
	}
	return *s.merchant, true
}

// HasProvisional reports whether any row still awaits confirmation.
func (s *Store) HasProvisional() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.Provisional {
			return true
		}
	}
	return false
}

// SetPanelVisible mirrors the cart-panel visibility flag.
func (s *Store) SetPanelVisible(visible bool) {
	s.mu.Lock()
	s.panelVisible = visible
	s.mirrorLocked()
	s.mu.Unlock()
}

func (s *Store) PanelVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panelVisible
}

// Clear empties the cart, unbinds the merchant, hides the panel and removes
// all persisted keys so a later browsing session cannot resurrect stale
// items. Unlike mutations, key removal is synchronous: Clear runs on order
// success, logout or a confirmed switch, where losing the race with a
// background mirror would bring a dead cart back.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.items = nil
	s.merchant = nil
	s.panelVisible = false
	s.rev++
	rev := s.rev
	s.mu.Unlock()

	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if rev < s.persisted {
		return nil
	}
	s.persisted = rev

	var firstErr error
	for _, key := range []string{cartKey(s.buyerID), merchantKey(s.buyerID), panelKey(s.buyerID)} {
		if err := s.gateway.Remove(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// mirrorLocked schedules a write-through of the current state. Callers hold
// s.mu. Revisions keep late writers from clobbering newer snapshots; readers
// never wait on the gateway.
func (s *Store) mirrorLocked() {
	s.rev++
	rev := s.rev
	items := make([]models.LineItem, len(s.items))
	copy(items, s.items)
	var merchant *models.Merchant
	if s.merchant != nil {
		m := *s.merchant
		merchant = &m
	}
	panel := s.panelVisible

	go s.persist(rev, items, merchant, panel)
}

func (s *Store) persist(rev uint64, items []models.LineItem, merchant *models.Merchant, panel bool) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if rev <= s.persisted {
		return
	}
	s.persisted = rev

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.gateway.Set(ctx, cartKey(s.buyerID), items); err != nil {
		log.Println("[CART] [WARN] mirror cart failed:", err)
	}
	if merchant != nil {
		if err := s.gateway.Set(ctx, merchantKey(s.buyerID), merchant); err != nil {
			log.Println("[CART] [WARN] mirror merchant failed:", err)
		}
	} else {
		if err := s.gateway.Remove(ctx, merchantKey(s.buyerID)); err != nil {
			log.Println("[CART] [WARN] remove merchant failed:", err)
		}
	}
	if err := s.gateway.Set(ctx, panelKey(s.buyerID), panel); err != nil {
		log.Println("[CART] [WARN] mirror panel failed:", err)
	}
}

// Flush waits until every scheduled mirror has completed. Tests use it to
// assert persisted state without sleeping.
func (s *Store) Flush() {
	s.mu.Lock()
	target := s.rev
	s.mu.Unlock()
	for {
		s.persistMu.Lock()
		done := s.persisted >= target
		s.persistMu.Unlock()
		if done {
			return
		}
		time.Sleep(time.Millisecond)
	}
}
