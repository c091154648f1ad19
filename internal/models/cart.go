package models

// LineItem is a single staged row in the buyer's cart. Unique by ItemID.
// Quantity is always >= 1; decrementing a quantity-1 row removes it.
type LineItem struct {
	ItemID      string  `json:"itemId"`
	ProductName string  `json:"productName"`
	UnitPrice   float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Image       string  `json:"image,omitempty"`
	// Provisional marks a row staged from a possibly stale menu snapshot.
	// Provisional rows block checkout until confirmed with a server price.
	Provisional bool `json:"provisional,omitempty"`
}

// Merchant is the snapshot of the restaurant the cart is bound to. The
// coordinates are kept so a route preview can be drawn without another
// catalog lookup.
type Merchant struct {
	ID        string  `json:"id"`
	Name      string  `json:"businessName"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Cart is the persisted form of the staging cart: all items of a non-empty
// cart share the bound merchant.
type Cart struct {
	Merchant *Merchant  `json:"restaurant,omitempty"`
	Items    []LineItem `json:"items"`
}
