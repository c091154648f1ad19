package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hatid/internal/geo"
	"hatid/internal/session"
)

type suggestionView struct {
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

func suggestionViews(candidates []geo.Candidate) []suggestionView {
	views := make([]suggestionView, 0, len(candidates))
	for _, candidate := range candidates {
		views = append(views, suggestionView{
			Label: candidate.Label(),
			Lat:   candidate.Latitude,
			Lng:   candidate.Longitude,
		})
	}
	return views
}

// SuggestAddress serves incremental typing. The per-session autocomplete
// guarantees the returned list always belongs to the newest query, even
// when responses arrive out of order.
func SuggestAddress(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "GET /address/suggest"
		defer handlePanic(c, routeName)

		sess, ok := sessionFor(c, manager, routeName)
		if !ok {
			return
		}

		candidates, err := sess.Autocomplete.Suggest(c.Request.Context(), c.Query("q"))
		if err != nil {
			respondWithDomainError(c, routeName, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"suggestions": suggestionViews(candidates)})
	}
}

type resolveRequest struct {
	Query string `json:"query" binding:"required"`
}

// ResolveAddress handles the explicit "Find" submit: top candidate or 404.
func ResolveAddress(resolver *geo.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "POST /address/resolve"
		defer handlePanic(c, routeName)

		var req resolveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, routeName, "invalid request body")
			return
		}

		point, err := resolver.ResolveOne(c.Request.Context(), req.Query)
		if err != nil {
			respondWithDomainError(c, routeName, err)
			return
		}
		c.JSON(http.StatusOK, point)
	}
}

// ReverseAddress turns a map pick or shared device location into a point.
func ReverseAddress(resolver *geo.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "GET /address/reverse"
		defer handlePanic(c, routeName)

		lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
		lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
		if latErr != nil || lngErr != nil {
			respondWithError(c, http.StatusBadRequest, routeName, "lat and lng are required")
			return
		}

		point, err := resolver.ReverseLookup(c.Request.Context(), lat, lng)
		if err != nil {
			respondWithDomainError(c, routeName, err)
			return
		}
		c.JSON(http.StatusOK, point)
	}
}
