// Package geo wraps the geocoding provider: forward search for address
// suggestions, single-result resolution on explicit submit, and reverse
// lookup for map picks. Zero results and provider failures surface as typed
// errors so the checkout flow can re-prompt instead of crashing.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hatid/internal/models"
)

var (
	// ErrNotFound means the provider answered but had no candidates.
	ErrNotFound = errors.New("geo: address not found")
	// ErrUnavailable means the provider could not be reached or answered
	// with garbage; the caller may retry.
	ErrUnavailable = errors.New("geo: provider unavailable")
)

// Candidate is one forward-search result.
type Candidate struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
	Address     Address
}

// Label is the human-readable form shown in a suggestion list.
func (c Candidate) Label() string {
	if formatted := FormatAddress(c.Address); formatted != "" {
		return formatted
	}
	return c.DisplayName
}

// Point converts the candidate into a delivery point.
func (c Candidate) Point() GeoPoint {
	return GeoPoint{Latitude: c.Latitude, Longitude: c.Longitude, Address: c.Label()}
}

// GeoPoint aliases the shared model; the resolver is its only producer.
type GeoPoint = models.GeoPoint

// Resolver talks to a nominatim-style geocoding service.
type Resolver struct {
	baseURL     string
	countryCode string
	client      *http.Client
}

// NewResolver builds a resolver against baseURL. countryCode restricts
// forward searches ("ph" in production); empty means no restriction.
func NewResolver(baseURL, countryCode string) *Resolver {
	return &Resolver{
		baseURL:     strings.TrimRight(baseURL, "/"),
		countryCode: countryCode,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// searchResult matches the provider's wire format; coordinates arrive as
// strings.
type searchResult struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`
}

func (r *searchResult) candidate() (Candidate, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return Candidate{}, fmt.Errorf("parse lat %q: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return Candidate{}, fmt.Errorf("parse lon %q: %w", r.Lon, err)
	}
	return Candidate{Latitude: lat, Longitude: lon, DisplayName: r.DisplayName, Address: r.Address}, nil
}

// Search issues a forward search. A blank query returns an empty list
// without touching the network.
func (r *Resolver) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query)
	params.Set("addressdetails", "1")
	params.Set("limit", strconv.Itoa(limit))
	if r.countryCode != "" {
		params.Set("countrycodes", r.countryCode)
	}

	var results []searchResult
	if err := r.getJSON(ctx, "/search?"+params.Encode(), &results); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(results))
	for i := range results {
		c, err := results[i].candidate()
		if err != nil {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// ResolveOne resolves free text to its top candidate. Used on explicit
// submit, never while typing.
func (r *Resolver) ResolveOne(ctx context.Context, query string) (GeoPoint, error) {
	candidates, err := r.Search(ctx, query, 1)
	if err != nil {
		return GeoPoint{}, err
	}
	if len(candidates) == 0 {
		return GeoPoint{}, ErrNotFound
	}
	return candidates[0].Point(), nil
}

type reverseResult struct {
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`
}

// ReverseLookup turns a map pick or device location into a delivery point.
func (r *Resolver) ReverseLookup(ctx context.Context, lat, lng float64) (GeoPoint, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("addressdetails", "1")

	var result reverseResult
	if err := r.getJSON(ctx, "/reverse?"+params.Encode(), &result); err != nil {
		return GeoPoint{}, err
	}

	address := FormatAddress(result.Address)
	if address == "" {
		address = result.DisplayName
	}
	if address == "" {
		return GeoPoint{}, ErrNotFound
	}
	return GeoPoint{Latitude: lat, Longitude: lng, Address: address}, nil
}

func (r *Resolver) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
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
