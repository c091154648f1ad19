package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"hatid/internal/cart"
	"hatid/internal/catalog"
	"hatid/internal/geo"
	"hatid/internal/middleware"
	"hatid/internal/models"
	"hatid/internal/orders"
	"hatid/internal/route"
	"hatid/internal/session"
)

func handlePanic(c *gin.Context, routeName string) {
	if r := recover(); r != nil {
		log.Printf("[%s] panic recovered: %v", routeName, r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func respondWithError(c *gin.Context, status int, routeName string, message string) {
	log.Printf("[%s] returning error %d: %s", routeName, status, message)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondWithDomainError maps the typed outcomes of the core onto HTTP
// statuses. Everything here is recoverable; nothing crashes the flow.
func respondWithDomainError(c *gin.Context, routeName string, err error) {
	var rejected *orders.RejectedError
	var invalid *orders.ValidationError

	switch {
	case errors.Is(err, cart.ErrMerchantConflict):
		log.Printf("[%s] merchant conflict", routeName)
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error": "switching restaurants clears the current cart",
			"code":  "merchant_conflict",
		})
	case errors.Is(err, cart.ErrUnknownItem):
		respondWithError(c, http.StatusNotFound, routeName, "item not in cart")
	case errors.Is(err, geo.ErrNotFound):
		respondWithError(c, http.StatusNotFound, routeName, "address not found")
	case errors.Is(err, orders.ErrUnknownOrder):
		respondWithError(c, http.StatusNotFound, routeName, "order not found")
	case errors.Is(err, orders.ErrIllegalTransition):
		respondWithError(c, http.StatusConflict, routeName, "status transition not allowed")
	case errors.As(err, &invalid):
		respondWithError(c, http.StatusBadRequest, routeName, invalid.Reason)
	case errors.As(err, &rejected):
		log.Printf("[%s] order service rejected: %s", routeName, rejected.Reason)
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "order was not accepted",
			"reason": rejected.Reason,
		})
	case errors.Is(err, geo.ErrUnavailable),
		errors.Is(err, route.ErrUnavailable),
		errors.Is(err, orders.ErrUnavailable),
		errors.Is(err, catalog.ErrUnavailable):
		respondWithError(c, http.StatusServiceUnavailable, routeName, "upstream service unavailable")
	default:
		log.Printf("[%s] unexpected error: %v", routeName, err)
		respondWithError(c, http.StatusInternalServerError, routeName, "internal server error")
	}
}

// sessionFor resolves the authenticated actor's session or writes the error
// response itself. The second return is false when a response was written.
func sessionFor(c *gin.Context, manager *session.Manager, routeName string) (*session.Session, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		respondWithError(c, http.StatusUnauthorized, routeName, "unauthorized")
		return nil, false
	}
	sess, err := manager.Get(c.Request.Context(), actor)
	if err != nil {
		log.Printf("[%s] session init failed: %v", routeName, err)
		respondWithError(c, http.StatusInternalServerError, routeName, "session unavailable")
		return nil, false
	}
	return sess, true
}

// cartView is the wire shape of the staging area shared by all cart routes.
type cartView struct {
	Restaurant *models.Merchant  `json:"restaurant"`
	Items      []models.LineItem `json:"items"`
	Total      float64           `json:"total"`
	Panel      bool              `json:"panelVisible"`
}

func viewOf(staged *cart.Store) cartView {
	view := cartView{
		Items: staged.Items(),
		Total: staged.Total(),
		Panel: staged.PanelVisible(),
	}
	if merchant, ok := staged.Merchant(); ok {
		view.Restaurant = &merchant
	}
	if view.Items == nil {
		view.Items = []models.LineItem{}
	}
	return view
}
