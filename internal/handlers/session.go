package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hatid/internal/middleware"
	"hatid/internal/session"
)

// Logout tears down the actor's session: the polling loop stops and the
// persisted cart, merchant, panel and unread keys are cleared.
func Logout(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "POST /session/logout"
		defer handlePanic(c, routeName)

		actor, ok := middleware.ActorFrom(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, routeName, "unauthorized")
			return
		}
		if err := manager.Teardown(c.Request.Context(), actor.ID); err != nil {
			respondWithError(c, http.StatusInternalServerError, routeName, "teardown failed")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
