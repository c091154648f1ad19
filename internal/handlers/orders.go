package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hatid/internal/session"
)

// ListOrders returns the buyer's orders partitioned into the notification
// buckets, together with the unread badges. A poll runs first so the view is
// as fresh as the order service.
func ListOrders(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "GET /orders"
		defer handlePanic(c, routeName)

		sess, ok := sessionFor(c, manager, routeName)
		if !ok {
			return
		}
		if err := sess.Tracker.Poll(c.Request.Context()); err != nil {
			respondWithDomainError(c, routeName, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"buckets": sess.Tracker.Buckets(),
			"unread":  sess.Tracker.Unread(),
		})
	}
}

// RefreshOrders runs one on-demand poll and reports the badges.
func RefreshOrders(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "POST /orders/refresh"
		defer handlePanic(c, routeName)

		sess, ok := sessionFor(c, manager, routeName)
		if !ok {
			return
		}
		if err := sess.Tracker.Poll(c.Request.Context()); err != nil {
			respondWithDomainError(c, routeName, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"unread": sess.Tracker.Unread()})
	}
}

// CancelOrder requests pending -> cancelled for the buyer. The tracker
// refuses transitions the actor may not make and confirms via re-poll.
func CancelOrder(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "POST /orders/:id/cancel"
		defer handlePanic(c, routeName)

		sess, ok := sessionFor(c, manager, routeName)
		if !ok {
			return
		}
		if err := sess.Tracker.Cancel(c.Request.Context(), c.Param("id")); err != nil {
			respondWithDomainError(c, routeName, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"buckets": sess.Tracker.Buckets()})
	}
}

// Notifications reports the unread badge per bucket.
func Notifications(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "GET /orders/notifications"
		defer handlePanic(c, routeName)

		sess, ok := sessionFor(c, manager, routeName)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"unread": sess.Tracker.Unread()})
	}
}

// MarkNotificationsRead acknowledges every bucket, independent of the next
// poll's content.
func MarkNotificationsRead(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "POST /orders/notifications/read"
		defer handlePanic(c, routeName)

		sess, ok := sessionFor(c, manager, routeName)
		if !ok {
			return
		}
		if err := sess.Tracker.MarkAllRead(c.Request.Context()); err != nil {
			respondWithDomainError(c, routeName, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"unread": sess.Tracker.Unread()})
	}
}
