package orders

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"hatid/internal/models"
)

// stubOrderService is an in-memory order backend. Tests mutate its state
// directly to play the courier or dispatch side of the lifecycle.
type stubOrderService struct {
	mu     sync.Mutex
	orders []models.Order

	// rejectPatches makes every status PATCH fail with 409;
	// rejectCreates makes every create fail with 503.
	rejectPatches bool
	rejectCreates bool
}

func (s *stubOrderService) add(order models.Order) {
	s.mu.Lock()
	s.orders = append(s.orders, order)
	s.mu.Unlock()
}

func (s *stubOrderService) setStatus(orderID string, status models.Status) {
	s.mu.Lock()
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			s.orders[i].Status = status
		}
	}
	s.mu.Unlock()
}

func (s *stubOrderService) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/orders/create", func(w http.ResponseWriter, r *http.Request) {
		if s.rejectCreates {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"error": "restaurant is closed"})
			return
		}
		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		order := models.Order{
			ID:              "generated-1",
			Reference:       req.Reference,
			RestaurantID:    req.RestaurantID,
			RestaurantName:  req.RestaurantName,
			CustomerID:      req.CustomerID,
			Items:           req.Items,
			DeliveryAddress: req.DeliveryAddress,
			TotalAmount:     req.TotalAmount,
			Status:          models.StatusPending,
		}
		s.add(order)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(order)
	})

	mux.HandleFunc("/api/orders/all", func(w http.ResponseWriter, r *http.Request) {
		customerID := r.URL.Query().Get("customerId")
		s.mu.Lock()
		out := []models.Order{}
		for _, order := range s.orders {
			if customerID == "" || order.CustomerID == customerID {
				out = append(out, order)
			}
		}
		s.mu.Unlock()
		json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("/api/orders/pending", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		out := []models.Order{}
		for _, order := range s.orders {
			if order.Status == models.StatusPending {
				out = append(out, order)
			}
		}
		s.mu.Unlock()
		json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("/api/orders/accepted", func(w http.ResponseWriter, r *http.Request) {
		riderID := r.URL.Query().Get("riderId")
		s.mu.Lock()
		out := []models.Order{}
		for _, order := range s.orders {
			if order.RiderID == riderID {
				out = append(out, order)
			}
		}
		s.mu.Unlock()
		json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("/api/orders/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || !strings.HasSuffix(r.URL.Path, "/status") {
			http.NotFound(w, r)
			return
		}
		if s.rejectPatches {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"error": "patch rejected"})
			return
		}
		orderID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/orders/"), "/status")
		var patch struct {
			Status    models.Status `json:"status"`
			RiderID   string        `json:"riderId"`
			RiderName string        `json:"riderName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		for i := range s.orders {
			if s.orders[i].ID == orderID {
				s.orders[i].Status = patch.Status
				if patch.RiderID != "" {
					s.orders[i].RiderID = patch.RiderID
					s.orders[i].RiderName = patch.RiderName
				}
			}
		}
		s.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func newStubService(t *testing.T) (*stubOrderService, *Client) {
	t.Helper()
	stub := &stubOrderService{}
	server := httptest.NewServer(stub.handler())
	t.Cleanup(server.Close)
	return stub, NewClient(server.URL)
}

func buyerOrder(id string, status models.Status) models.Order {
	return models.Order{
		ID:           id,
		CustomerID:   "buyer-1",
		RestaurantID: "m1",
		Status:       status,
		TotalAmount:  250,
	}
}
