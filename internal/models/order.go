package models

import "time"

// OrderItem is the immutable snapshot of one cart row taken at submission.
type OrderItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Image       string  `json:"image,omitempty"`
}

// Order mirrors the order service's document. The gateway never mutates
// Status directly; it requests a transition and trusts the next read.
type Order struct {
	ID              string      `json:"id"`
	Reference       string      `json:"reference,omitempty"`
	RestaurantID    string      `json:"restaurant_id"`
	RestaurantName  string      `json:"restaurant_name"`
	CustomerID      string      `json:"customer_id"`
	CustomerName    string      `json:"customer_name,omitempty"`
	RiderID         string      `json:"rider_id,omitempty"`
	RiderName       string      `json:"rider_name,omitempty"`
	Items           []OrderItem `json:"items"`
	DeliveryAddress GeoPoint    `json:"delivery_address"`
	TotalAmount     float64     `json:"total_amount"`
	Status          Status      `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
}
