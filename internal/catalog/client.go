// Package catalog is the read-only client for the business service:
// restaurant browsing and per-restaurant menus.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnavailable means the business service could not be reached.
var ErrUnavailable = errors.New("catalog: service unavailable")

// Restaurant is one merchant from the browsing list.
type Restaurant struct {
	ID           string   `json:"id"`
	BusinessName string   `json:"businessName"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Categories   []string `json:"categories,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
}

// MenuItem is one orderable entry of a restaurant's menu.
type MenuItem struct {
	ID          string  `json:"id"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Image       string  `json:"image,omitempty"`
	Available   bool    `json:"available"`
}

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

// Restaurants lists every active merchant.
func (c *Client) Restaurants(ctx context.Context) ([]Restaurant, error) {
	var restaurants []Restaurant
	if err := c.getJSON(ctx, "/api/business/all-restaurants", &restaurants); err != nil {
		return nil, err
	}
	return restaurants, nil
}

// Recommended lists merchants matching the buyer's saved category
// preferences.
func (c *Client) Recommended(ctx context.Context, userID string) ([]Restaurant, error) {
	var restaurants []Restaurant
	path := "/api/business/recommended/" + url.PathEscape(userID)
	if err := c.getJSON(ctx, path, &restaurants); err != nil {
		return nil, err
	}
	return restaurants, nil
}

// Menu lists the orderable items of one merchant.
func (c *Client) Menu(ctx context.Context, restaurantID string) ([]MenuItem, error) {
	var items []MenuItem
	path := "/api/business/" + url.PathEscape(restaurantID) + "/menu"
	if err := c.getJSON(ctx, path, &items); err != nil {
		return nil, err
	}
	return items, nil
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
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d, body: %s", ErrUnavailable, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return nil
}
