package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"hatid/internal/geo"
	"hatid/internal/kv"
	"hatid/internal/middleware"
	"hatid/internal/models"
	"hatid/internal/orders"
	"hatid/internal/session"
)

const testSecret = "flow-test-secret"

// newTestRouter wires the cart, checkout and logout routes against an
// in-memory gateway and an order backend stub that accepts every create.
func newTestRouter(t *testing.T) (*gin.Engine, *kv.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	orderStub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/create") {
			var req orders.CreateRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(models.Order{
				ID:          "o-1",
				Reference:   req.Reference,
				CustomerID:  req.CustomerID,
				TotalAmount: req.TotalAmount,
				Status:      models.StatusPending,
			})
			return
		}
		w.Write([]byte("[]"))
	}))
	t.Cleanup(orderStub.Close)

	gateway := kv.NewMemoryStore()
	resolver := geo.NewResolver(orderStub.URL, "ph")
	orderClient := orders.NewClient(orderStub.URL)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	manager := session.NewManager(ctx, gateway, resolver, orderClient, time.Hour)

	r := gin.New()
	customerAuth := middleware.Auth(testSecret, models.RoleCustomer)

	cartGroup := r.Group("/cart")
	cartGroup.Use(customerAuth)
	{
		cartGroup.GET("", GetCart(manager))
		cartGroup.POST("/items", AddCartItem(manager))
		cartGroup.POST("/items/:id/decrement", DecrementCartItem(manager))
	}
	r.POST("/checkout", customerAuth, Checkout(manager, orders.NewSubmitter(orderClient)))
	r.POST("/session/logout", middleware.Auth(testSecret), Logout(manager))

	return r, gateway
}

func signToken(t *testing.T, actor models.Actor) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": actor.ID,
		"role":   string(actor.Role),
		"name":   actor.Name,
		"phone":  actor.Phone,
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func addItemBody(itemID, merchantID string, confirmSwitch bool) map[string]interface{} {
	return map[string]interface{}{
		"item": map[string]interface{}{
			"itemId":      itemID,
			"productName": "Pancit " + itemID,
			"price":       120.0,
			"quantity":    1,
		},
		"restaurant":    map[string]interface{}{"id": merchantID, "businessName": "Resto " + merchantID},
		"confirmSwitch": confirmSwitch,
	}
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) cartView {
	t.Helper()
	var view cartView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decoding cart view: %v", err)
	}
	return view
}

func TestCartRoutesRejectMissingAndWrongRoleTokens(t *testing.T) {
	r, _ := newTestRouter(t)

	if rec := doJSON(t, r, http.MethodGet, "/cart", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: got %d", rec.Code)
	}

	rider := signToken(t, models.Actor{ID: "rider-1", Role: models.RoleRider})
	if rec := doJSON(t, r, http.MethodGet, "/cart", rider, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("rider token on customer route: got %d", rec.Code)
	}
}

func TestAddItemMerchantConflictAndConfirmedSwitch(t *testing.T) {
	r, _ := newTestRouter(t)
	buyer := signToken(t, models.Actor{ID: "buyer-1", Role: models.RoleCustomer, Name: "Ana", Phone: "0917"})

	rec := doJSON(t, r, http.MethodPost, "/cart/items", buyer, addItemBody("p1", "m1", false))
	if rec.Code != http.StatusOK {
		t.Fatalf("first add: got %d (%s)", rec.Code, rec.Body.String())
	}

	// Second merchant without confirmation: conflict, cart untouched.
	rec = doJSON(t, r, http.MethodPost, "/cart/items", buyer, addItemBody("p2", "m2", false))
	if rec.Code != http.StatusConflict {
		t.Fatalf("conflicting add: got %d", rec.Code)
	}
	var conflict struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &conflict); err != nil || conflict.Code != "merchant_conflict" {
		t.Fatalf("conflict payload: %s", rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodGet, "/cart", buyer, nil)
	view := decodeView(t, rec)
	if len(view.Items) != 1 || view.Items[0].ItemID != "p1" {
		t.Fatalf("cart changed by rejected add: %+v", view.Items)
	}

	// Confirmed switch clears the old cart and binds the new merchant.
	rec = doJSON(t, r, http.MethodPost, "/cart/items", buyer, addItemBody("p2", "m2", true))
	if rec.Code != http.StatusOK {
		t.Fatalf("confirmed switch: got %d (%s)", rec.Code, rec.Body.String())
	}
	view = decodeView(t, rec)
	if view.Restaurant == nil || view.Restaurant.ID != "m2" {
		t.Fatalf("merchant after switch: %+v", view.Restaurant)
	}
	if len(view.Items) != 1 || view.Items[0].ItemID != "p2" {
		t.Fatalf("items after switch: %+v", view.Items)
	}
}

func TestDecrementToZeroRemovesRow(t *testing.T) {
	r, _ := newTestRouter(t)
	buyer := signToken(t, models.Actor{ID: "buyer-2", Role: models.RoleCustomer})

	doJSON(t, r, http.MethodPost, "/cart/items", buyer, addItemBody("p1", "m1", false))
	rec := doJSON(t, r, http.MethodPost, "/cart/items/p1/decrement", buyer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("decrement: got %d", rec.Code)
	}
	if view := decodeView(t, rec); len(view.Items) != 0 {
		t.Fatalf("row survived decrement to zero: %+v", view.Items)
	}

	if rec := doJSON(t, r, http.MethodPost, "/cart/items/p1/decrement", buyer, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("decrement of absent row: got %d", rec.Code)
	}
}

func TestCheckoutThenLogoutTearsEverythingDown(t *testing.T) {
	r, gateway := newTestRouter(t)
	buyer := signToken(t, models.Actor{ID: "buyer-3", Role: models.RoleCustomer, Name: "Ana", Phone: "0917"})

	doJSON(t, r, http.MethodPost, "/cart/items", buyer, addItemBody("p1", "m1", false))

	// No delivery location: rejected before any network call.
	rec := doJSON(t, r, http.MethodPost, "/checkout", buyer, map[string]interface{}{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("checkout without location: got %d", rec.Code)
	}

	location := map[string]interface{}{
		"location": map[string]interface{}{"lat": 13.45, "lng": 121.84, "address": "Rizal St, Boac"},
	}
	rec = doJSON(t, r, http.MethodPost, "/checkout", buyer, location)
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout: got %d (%s)", rec.Code, rec.Body.String())
	}
	var placed models.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &placed); err != nil || placed.ID == "" {
		t.Fatalf("order payload: %s", rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodGet, "/cart", buyer, nil)
	if view := decodeView(t, rec); len(view.Items) != 0 || view.Restaurant != nil {
		t.Fatalf("cart survived checkout: %s", rec.Body.String())
	}

	if rec := doJSON(t, r, http.MethodPost, "/session/logout", buyer, nil); rec.Code != http.StatusOK {
		t.Fatalf("logout: got %d", rec.Code)
	}
	for _, key := range []string{"cart:buyer-3", "merchant:buyer-3", "panel:buyer-3", "unread:buyer-3"} {
		if gateway.Has(key) {
			t.Fatalf("key %s survived logout", key)
		}
	}
}
