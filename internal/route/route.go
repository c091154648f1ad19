// Package route fetches a driving path between the merchant and the
// delivery point for the checkout preview. The path is cosmetic: any failure
// degrades to "no route drawn" and must never block checkout.
package route

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hatid/internal/models"
)

// ErrUnavailable covers every failure mode: missing credentials, network
// error, malformed payload. Callers render an empty path.
var ErrUnavailable = errors.New("route: unavailable")

// Coordinate is one vertex of the previewed path, in display order.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Estimator calls an openrouteservice-style directions endpoint. The API key
// stays server-side; clients never see it.
type Estimator struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewEstimator(baseURL, apiKey string) *Estimator {
	return &Estimator{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type directionsRequest struct {
	Coordinates [][2]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Estimate returns the routed path from origin to destination. The provider
// speaks [lng, lat] pairs; the result is flipped to lat/lng.
func (e *Estimator) Estimate(ctx context.Context, origin, destination models.GeoPoint) ([]Coordinate, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("%w: no api key configured", ErrUnavailable)
	}

	payload := directionsRequest{
		Coordinates: [][2]float64{
			{origin.Longitude, origin.Latitude},
			{destination.Longitude, destination.Latitude},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	url := e.baseURL + "/v2/directions/driving-car/geojson"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var decoded directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if len(decoded.Features) == 0 {
		return nil, fmt.Errorf("%w: empty route", ErrUnavailable)
	}

	raw := decoded.Features[0].Geometry.Coordinates
	path := make([]Coordinate, 0, len(raw))
	for _, pair := range raw {
		if len(pair) < 2 {
			continue
		}
		path = append(path, Coordinate{Lat: pair[1], Lng: pair[0]})
	}
	return path, nil
}
