package orders

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hatid/internal/cart"
	"hatid/internal/kv"
	"hatid/internal/models"
)

var deliveryPoint = models.GeoPoint{Latitude: 13.45, Longitude: 121.84, Address: "Rizal St, Boac"}

func stagedCart(t *testing.T, gateway kv.Store) *cart.Store {
	t.Helper()
	staged := cart.New("buyer-1", gateway)
	err := staged.AddItem(
		models.LineItem{ItemID: "p1", ProductName: "Pancit", UnitPrice: 120, Quantity: 2},
		models.Merchant{ID: "m1", Name: "Lomi House"},
	)
	if err != nil {
		t.Fatal(err)
	}
	return staged
}

func TestSubmitPreconditionOrder(t *testing.T) {
	ctx := context.Background()
	_, client := newStubService(t)
	submitter := NewSubmitter(client)
	gateway := kv.NewMemoryStore()

	// 1: empty cart fails first, even with everything else missing too.
	empty := cart.New("buyer-1", gateway)
	_, err := submitter.Submit(ctx, empty, models.Actor{}, models.GeoPoint{})
	var invalid *ValidationError
	if !errors.As(err, &invalid) || invalid.Field != "items" {
		t.Fatalf("expected items validation first, got %v", err)
	}

	// 2: missing delivery point fails before missing buyer.
	staged := stagedCart(t, gateway)
	_, err = submitter.Submit(ctx, staged, models.Actor{}, models.GeoPoint{})
	if !errors.As(err, &invalid) || invalid.Field != "deliveryPoint" {
		t.Fatalf("expected deliveryPoint validation, got %v", err)
	}

	// 3: missing buyer identity is last.
	_, err = submitter.Submit(ctx, staged, models.Actor{}, deliveryPoint)
	if !errors.As(err, &invalid) || invalid.Field != "buyer" {
		t.Fatalf("expected buyer validation, got %v", err)
	}
}

func TestSubmitRefusesProvisionalRows(t *testing.T) {
	ctx := context.Background()
	_, client := newStubService(t)
	submitter := NewSubmitter(client)

	staged := cart.New("buyer-1", kv.NewMemoryStore())
	err := staged.AddItem(
		models.LineItem{ItemID: "p1", ProductName: "Pancit", Quantity: 1, Provisional: true},
		models.Merchant{ID: "m1"},
	)
	if err != nil {
		t.Fatal(err)
	}

	_, err = submitter.Submit(ctx, staged, buyerActor(), deliveryPoint)
	var invalid *ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if staged.Len() != 1 {
		t.Fatal("cart mutated by failed submission")
	}
}

func TestSubmitNetworkFailureLeavesCartIntact(t *testing.T) {
	ctx := context.Background()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // every request now fails at dial time
	submitter := NewSubmitter(NewClient(server.URL))

	staged := stagedCart(t, kv.NewMemoryStore())
	_, err := submitter.Submit(ctx, staged, buyerActor(), deliveryPoint)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	items := staged.Items()
	if len(items) != 1 || items[0].ItemID != "p1" || items[0].Quantity != 2 {
		t.Fatalf("cart changed after failed submit: %+v", items)
	}
	if _, ok := staged.Merchant(); !ok {
		t.Fatal("merchant binding lost after failed submit")
	}
}

func TestSubmitRejectionLeavesCartIntact(t *testing.T) {
	ctx := context.Background()
	stub, client := newStubService(t)
	stub.rejectCreates = true
	submitter := NewSubmitter(client)

	staged := stagedCart(t, kv.NewMemoryStore())
	_, err := submitter.Submit(ctx, staged, buyerActor(), deliveryPoint)
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
	if rejected.Reason != "restaurant is closed" {
		t.Fatalf("reason not surfaced: %q", rejected.Reason)
	}
	if staged.Len() != 1 {
		t.Fatal("cart not preserved for retry")
	}
}

func TestSubmitSuccessTearsDownStaging(t *testing.T) {
	ctx := context.Background()
	stub, client := newStubService(t)
	submitter := NewSubmitter(client)
	gateway := kv.NewMemoryStore()

	staged := stagedCart(t, gateway)
	staged.SetPanelVisible(true)
	staged.Flush()

	order, err := submitter.Submit(ctx, staged, buyerActor(), deliveryPoint)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if order.ID == "" || order.Status != models.StatusPending {
		t.Fatalf("unexpected order: %+v", order)
	}
	if order.TotalAmount != 240 {
		t.Fatalf("total snapshot wrong: %v", order.TotalAmount)
	}
	if order.Reference == "" {
		t.Fatal("client reference missing")
	}

	if staged.Len() != 0 {
		t.Fatal("cart not cleared after confirmed success")
	}
	if _, ok := staged.Merchant(); ok {
		t.Fatal("selected merchant survived submission")
	}
	if staged.PanelVisible() {
		t.Fatal("panel flag survived submission")
	}
	for _, key := range []string{"cart:buyer-1", "merchant:buyer-1", "panel:buyer-1"} {
		if gateway.Has(key) {
			t.Fatalf("persisted key %s survived submission", key)
		}
	}
	if len(stub.orders) != 1 {
		t.Fatalf("order service holds %d orders", len(stub.orders))
	}
}
