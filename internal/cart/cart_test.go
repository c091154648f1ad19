package cart

import (
	"context"
	"errors"
	"testing"

	"hatid/internal/kv"
	"hatid/internal/models"
)

func merchantA() models.Merchant {
	return models.Merchant{ID: "m1", Name: "Tapsihan ni Aling Nena", Latitude: 12.58, Longitude: 121.52}
}

func merchantB() models.Merchant {
	return models.Merchant{ID: "m2", Name: "Lomi House"}
}

func item(id string, price float64, qty int) models.LineItem {
	return models.LineItem{ItemID: id, ProductName: "item " + id, UnitPrice: price, Quantity: qty}
}

func TestAddItemUpsertsQuantity(t *testing.T) {
	s := New("buyer-1", kv.NewMemoryStore())

	if err := s.AddItem(item("p1", 100, 1), merchantA()); err != nil {
		t.Fatalf("first add returned error: %v", err)
	}
	if err := s.AddItem(item("p1", 100, 1), merchantA()); err != nil {
		t.Fatalf("second add returned error: %v", err)
	}

	items := s.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 row, got %d", len(items))
	}
	if items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", items[0].Quantity)
	}
}

func TestSingleMerchantInvariant(t *testing.T) {
	s := New("buyer-1", kv.NewMemoryStore())

	if err := s.AddItem(item("p1", 100, 1), merchantA()); err != nil {
		t.Fatalf("add for merchant A: %v", err)
	}

	err := s.AddItem(item("p2", 50, 1), merchantB())
	if !errors.Is(err, ErrMerchantConflict) {
		t.Fatalf("expected ErrMerchantConflict, got %v", err)
	}

	items := s.Items()
	if len(items) != 1 || items[0].ItemID != "p1" {
		t.Fatalf("cart must still contain only p1, got %+v", items)
	}
	if m, _ := s.Merchant(); m.ID != "m1" {
		t.Fatalf("merchant binding changed to %q", m.ID)
	}
}

func TestConfirmedSwitchClearsAndRebinds(t *testing.T) {
	s := New("buyer-1", kv.NewMemoryStore())

	if err := s.AddItem(item("p1", 100, 1), merchantA()); err != nil {
		t.Fatal(err)
	}
	s.SwitchMerchant(merchantB())
	if err := s.AddItem(item("p2", 50, 1), merchantB()); err != nil {
		t.Fatalf("add after confirmed switch: %v", err)
	}

	items := s.Items()
	if len(items) != 1 || items[0].ItemID != "p2" {
		t.Fatalf("expected only p2 after switch, got %+v", items)
	}
}

func TestTotal(t *testing.T) {
	s := New("buyer-1", kv.NewMemoryStore())
	if err := s.AddItem(item("p1", 100, 2), merchantA()); err != nil {
		t.Fatal(err)
	}
	if err := s.AddItem(item("p2", 50, 3), merchantA()); err != nil {
		t.Fatal(err)
	}
	if got := s.Total(); got != 350 {
		t.Fatalf("expected total 350, got %v", got)
	}
}

func TestDecrementToRemoval(t *testing.T) {
	s := New("buyer-1", kv.NewMemoryStore())
	if err := s.AddItem(item("p1", 100, 1), merchantA()); err != nil {
		t.Fatal(err)
	}

	if err := s.Decrement("p1"); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if got := s.Len(); got != 0 {
		t.Fatalf("expected empty cart, got %d rows", got)
	}
	for _, row := range s.Items() {
		if row.Quantity == 0 {
			t.Fatal("zero-quantity row left in cart")
		}
	}
}

func TestDecrementUnknownItem(t *testing.T) {
	s := New("buyer-1", kv.NewMemoryStore())
	if err := s.Decrement("ghost"); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}
}

func TestBulkRemoveIgnoresUnknownIDs(t *testing.T) {
	s := New("buyer-1", kv.NewMemoryStore())
	for _, id := range []string{"p1", "p2", "p3"} {
		if err := s.AddItem(item(id, 10, 1), merchantA()); err != nil {
			t.Fatal(err)
		}
	}

	s.BulkRemove([]string{"p1", "p3", "ghost"})

	items := s.Items()
	if len(items) != 1 || items[0].ItemID != "p2" {
		t.Fatalf("expected only p2 left, got %+v", items)
	}
}

func TestWriteThroughAndRehydrate(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()

	s := New("buyer-1", store)
	if err := s.AddItem(item("p1", 100, 2), merchantA()); err != nil {
		t.Fatal(err)
	}
	s.SetPanelVisible(true)
	s.Flush()

	reloaded := New("buyer-1", store)
	if err := reloaded.Rehydrate(ctx); err != nil {
		t.Fatalf("rehydrate: %v", err)
	}

	items := reloaded.Items()
	if len(items) != 1 || items[0].ItemID != "p1" || items[0].Quantity != 2 {
		t.Fatalf("rehydrated cart wrong: %+v", items)
	}
	if m, ok := reloaded.Merchant(); !ok || m.ID != "m1" {
		t.Fatalf("rehydrated merchant wrong: %+v ok=%v", m, ok)
	}
	if !reloaded.PanelVisible() {
		t.Fatal("panel flag not rehydrated")
	}
}

func TestClearRemovesPersistedKeys(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()

	s := New("buyer-1", store)
	if err := s.AddItem(item("p1", 100, 1), merchantA()); err != nil {
		t.Fatal(err)
	}
	s.Flush()

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	for _, key := range []string{"cart:buyer-1", "merchant:buyer-1", "panel:buyer-1"} {
		if store.Has(key) {
			t.Fatalf("key %s survived clear", key)
		}
	}
	if s.Len() != 0 {
		t.Fatal("items survived clear")
	}
	if _, ok := s.Merchant(); ok {
		t.Fatal("merchant binding survived clear")
	}
}

func TestProvisionalLifecycle(t *testing.T) {
	s := New("buyer-1", kv.NewMemoryStore())

	staged := item("p1", 0, 1)
	staged.Provisional = true
	if err := s.AddItem(staged, merchantA()); err != nil {
		t.Fatal(err)
	}
	if !s.HasProvisional() {
		t.Fatal("expected a provisional row")
	}

	if err := s.ConfirmItem("p1", 120); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if s.HasProvisional() {
		t.Fatal("row still provisional after confirm")
	}
	if got := s.Total(); got != 120 {
		t.Fatalf("expected confirmed price in total, got %v", got)
	}
}
