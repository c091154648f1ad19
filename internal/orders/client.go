// Package orders carries everything order-lifecycle: the order service
// client, checkout submission, and the polling tracker that reconciles
// status changes made by buyer, courier and dispatch.
package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hatid/internal/models"
)

// ErrUnavailable means the order service could not be reached; the staged
// cart survives for a retry.
var ErrUnavailable = errors.New("orders: service unavailable")

// RejectedError is a declined request: the service answered and said no.
type RejectedError struct {
	StatusCode int
	Reason     string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("orders: rejected (%d): %s", e.StatusCode, e.Reason)
}

// Client talks to the order service.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateRequest is the submission payload: a full snapshot of the staged
// cart plus buyer identity and the resolved delivery point. Reference is a
// client-generated id so a retried submit is recognizable server-side.
type CreateRequest struct {
	Reference       string             `json:"reference"`
	CustomerID      string             `json:"customer_id"`
	CustomerName    string             `json:"customer_name"`
	CustomerPhone   string             `json:"customer_phone,omitempty"`
	RestaurantID    string             `json:"restaurant_id"`
	RestaurantName  string             `json:"restaurant_name"`
	Items           []models.OrderItem `json:"items"`
	DeliveryAddress models.GeoPoint    `json:"delivery_address"`
	TotalAmount     float64            `json:"total_amount"`
}

// Create posts a new order. Only a 201 counts as success.
func (c *Client) Create(ctx context.Context, req CreateRequest) (models.Order, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return models.Order{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/orders/create", bytes.NewReader(body))
	if err != nil {
		return models.Order{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return models.Order{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return models.Order{}, &RejectedError{StatusCode: resp.StatusCode, Reason: readReason(resp.Body)}
	}

	var order models.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return models.Order{}, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return order, nil
}

// List fetches the actor's orders: all of the buyer's orders, or the
// courier's accepted ones.
func (c *Client) List(ctx context.Context, actor models.Actor) ([]models.Order, error) {
	var path string
	switch actor.Role {
	case models.RoleRider:
		path = "/api/orders/accepted?riderId=" + url.QueryEscape(actor.ID)
	case models.RoleAdmin:
		path = "/api/orders/all"
	default:
		path = "/api/orders/all?customerId=" + url.QueryEscape(actor.ID)
	}

	var orders []models.Order
	if err := c.getJSON(ctx, path, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Pending fetches the unassigned orders couriers can accept.
func (c *Client) Pending(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.getJSON(ctx, "/api/orders/pending", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

type statusPatch struct {
	Status    models.Status `json:"status"`
	RiderID   string        `json:"riderId,omitempty"`
	RiderName string        `json:"riderName,omitempty"`
}

// UpdateStatus requests a transition. The new status is only believed once a
// subsequent read confirms it; callers re-poll after this returns.
func (c *Client) UpdateStatus(ctx context.Context, orderID string, status models.Status, riderID, riderName string) error {
	body, err := json.Marshal(statusPatch{Status: status, RiderID: riderID, RiderName: riderName})
	if err != nil {
		return err
	}

	path := c.baseURL + "/api/orders/" + url.PathEscape(orderID) + "/status"
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return &RejectedError{StatusCode: resp.StatusCode, Reason: readReason(resp.Body)}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return nil
}

func readReason(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 1024))
	var decoded struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &decoded) == nil {
		if decoded.Error != "" {
			return decoded.Error
		}
		if decoded.Message != "" {
			return decoded.Message
		}
	}
	return strings.TrimSpace(string(body))
}
