package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hatid/internal/catalog"
	"hatid/internal/middleware"
)

// Restaurants serves the browsing list; when the business service offers
// recommendations for the buyer they are included alongside the full list.
func Restaurants(client *catalog.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "GET /catalog/restaurants"
		defer handlePanic(c, routeName)

		all, err := client.Restaurants(c.Request.Context())
		if err != nil {
			respondWithDomainError(c, routeName, err)
			return
		}

		var recommended []catalog.Restaurant
		if actor, ok := middleware.ActorFrom(c); ok {
			// Recommendations are best-effort; browsing works without them.
			recommended, _ = client.Recommended(c.Request.Context(), actor.ID)
		}
		if recommended == nil {
			recommended = []catalog.Restaurant{}
		}
		c.JSON(http.StatusOK, gin.H{"all": all, "recommended": recommended})
	}
}

// Menu serves one restaurant's orderable items.
func Menu(client *catalog.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "GET /catalog/restaurants/:id/menu"
		defer handlePanic(c, routeName)

		items, err := client.Menu(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondWithDomainError(c, routeName, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}
