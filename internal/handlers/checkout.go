package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hatid/internal/models"
	"hatid/internal/orders"
	"hatid/internal/session"
)

type checkoutRequest struct {
	Location models.GeoPoint `json:"location" binding:"required"`
}

// Checkout submits the staged cart as one atomic request. The cart is torn
// down by the submitter only after the order service confirms; any failure
// leaves it intact, so the buyer can retry without restaging.
func Checkout(manager *session.Manager, submitter *orders.Submitter) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "POST /checkout"
		defer handlePanic(c, routeName)

		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, routeName, "invalid request body")
			return
		}

		sess, ok := sessionFor(c, manager, routeName)
		if !ok {
			return
		}

		order, err := submitter.Submit(c.Request.Context(), sess.Cart, sess.Actor, req.Location)
		if err != nil {
			respondWithDomainError(c, routeName, err)
			return
		}

		// Pull the fresh order into the tracker without waiting a tick.
		sess.Tracker.RefreshNow()

		c.JSON(http.StatusCreated, order)
	}
}
