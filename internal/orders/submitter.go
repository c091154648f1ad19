package orders

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"hatid/internal/cart"
	"hatid/internal/models"
)

// ValidationError is a missing precondition caught before any network call;
// the caller prompts the buyer instead of submitting.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("orders: invalid submission: %s (%s)", e.Reason, e.Field)
}

// Submitter assembles the purchase payload from the staged cart, the
// resolved delivery point and the buyer identity, and posts it as one atomic
// request. The staging area is torn down only after the service confirms;
// any failure leaves the cart intact for retry.
type Submitter struct {
	client *Client
}

func NewSubmitter(client *Client) *Submitter {
	return &Submitter{client: client}
}

// Submit checks preconditions in order (first failure wins): cart non-empty
// and fully confirmed, delivery point present, buyer identity present. On a
// confirmed success it clears the cart, the selected merchant and the panel
// flag.
func (s *Submitter) Submit(ctx context.Context, staged *cart.Store, actor models.Actor, deliveryPoint models.GeoPoint) (models.Order, error) {
	items := staged.Items()
	if len(items) == 0 {
		return models.Order{}, &ValidationError{Field: "items", Reason: "cart is empty"}
	}
	if staged.HasProvisional() {
		return models.Order{}, &ValidationError{Field: "items", Reason: cart.ErrProvisionalItem.Error()}
	}
	if deliveryPoint.Zero() {
		return models.Order{}, &ValidationError{Field: "deliveryPoint", Reason: "no delivery location selected"}
	}
	if actor.ID == "" {
		return models.Order{}, &ValidationError{Field: "buyer", Reason: "buyer identity missing"}
	}
	merchant, ok := staged.Merchant()
	if !ok {
		return models.Order{}, &ValidationError{Field: "merchant", Reason: "no merchant selected"}
	}

	snapshot := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		snapshot = append(snapshot, models.OrderItem{
			ProductID:   item.ItemID,
			ProductName: item.ProductName,
			Price:       item.UnitPrice,
			Quantity:    item.Quantity,
			Image:       item.Image,
		})
	}

	req := CreateRequest{
		Reference:       uuid.NewString(),
		CustomerID:      actor.ID,
		CustomerName:    actor.Name,
		CustomerPhone:   actor.Phone,
		RestaurantID:    merchant.ID,
		RestaurantName:  merchant.Name,
		Items:           snapshot,
		DeliveryAddress: deliveryPoint,
		TotalAmount:     staged.Total(),
	}

	order, err := s.client.Create(ctx, req)
	if err != nil {
		return models.Order{}, err
	}

	// Confirmed success: tear the staging area down. A failed teardown is
	// logged, not surfaced; the order already exists.
	if err := staged.Clear(ctx); err != nil {
		log.Println("[ORDER] [WARN] clearing cart after submit:", err)
	}
	return order, nil
}
