package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hatid/internal/models"
	"hatid/internal/orders"
	"hatid/internal/session"
)

// AvailableOrders lists unassigned orders any courier can accept. This is a
// plain read of the order service, not session state.
func AvailableOrders(client *orders.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "GET /courier/orders/available"
		defer handlePanic(c, routeName)

		pending, err := client.Pending(c.Request.Context())
		if err != nil {
			respondWithDomainError(c, routeName, err)
			return
		}
		if pending == nil {
			pending = []models.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"orders": pending})
	}
}

// AcceptedOrders lists the courier's own deliveries, split into ongoing and
// completed.
func AcceptedOrders(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "GET /courier/orders/accepted"
		defer handlePanic(c, routeName)

		sess, ok := sessionFor(c, manager, routeName)
		if !ok {
			return
		}
		if err := sess.Tracker.Poll(c.Request.Context()); err != nil {
			respondWithDomainError(c, routeName, err)
			return
		}

		ongoing := []models.Order{}
		completed := []models.Order{}
		for _, order := range sess.Tracker.Orders() {
			if order.Status == models.StatusCompleted {
				completed = append(completed, order)
			} else {
				ongoing = append(ongoing, order)
			}
		}
		c.JSON(http.StatusOK, gin.H{"ongoing": ongoing, "completed": completed})
	}
}

// AcceptOrder requests pending -> assigned for this courier. The new status
// is only believed once the confirming poll returns it.
func AcceptOrder(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "POST /courier/orders/:id/accept"
		defer handlePanic(c, routeName)

		sess, ok := sessionFor(c, manager, routeName)
		if !ok {
			return
		}
		if err := sess.Tracker.Accept(c.Request.Context(), c.Param("id")); err != nil {
			respondWithDomainError(c, routeName, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": sess.Tracker.Orders()})
	}
}

// CompleteOrder requests assigned -> completed for this courier.
func CompleteOrder(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "POST /courier/orders/:id/complete"
		defer handlePanic(c, routeName)

		sess, ok := sessionFor(c, manager, routeName)
		if !ok {
			return
		}
		if err := sess.Tracker.Complete(c.Request.Context(), c.Param("id")); err != nil {
			respondWithDomainError(c, routeName, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": sess.Tracker.Orders()})
	}
}
