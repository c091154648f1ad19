package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"hatid/internal/models"
	"hatid/internal/route"
	"hatid/internal/session"
)

type routePreviewRequest struct {
	Destination models.GeoPoint `json:"destination" binding:"required"`
}

// RoutePreview draws the merchant-to-door path on the checkout map. The
// path is decoration: when the routing provider is down or unconfigured the
// response is an empty path, never an error that blocks checkout.
func RoutePreview(manager *session.Manager, estimator *route.Estimator) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "POST /route/preview"
		defer handlePanic(c, routeName)

		var req routePreviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, routeName, "invalid request body")
			return
		}

		sess, ok := sessionFor(c, manager, routeName)
		if !ok {
			return
		}
		merchant, ok := sess.Cart.Merchant()
		if !ok {
			respondWithError(c, http.StatusConflict, routeName, "no restaurant selected")
			return
		}

		origin := models.GeoPoint{Latitude: merchant.Latitude, Longitude: merchant.Longitude}
		path, err := estimator.Estimate(c.Request.Context(), origin, req.Destination)
		if err != nil {
			if errors.Is(err, route.ErrUnavailable) {
				log.Printf("[%s] degraded, no route drawn: %v", routeName, err)
				c.JSON(http.StatusOK, gin.H{"coordinates": []route.Coordinate{}})
				return
			}
			respondWithDomainError(c, routeName, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"coordinates": path})
	}
}
