package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hatid/internal/cart"
	"hatid/internal/models"
	"hatid/internal/session"
)

type addItemRequest struct {
	Item struct {
		ItemID      string  `json:"itemId" binding:"required"`
		ProductName string  `json:"productName" binding:"required"`
		Price       float64 `json:"price"`
		Quantity    int     `json:"quantity"`
		Image       string  `json:"image"`
		Provisional bool    `json:"provisional"`
	} `json:"item" binding:"required"`
	Restaurant models.Merchant `json:"restaurant" binding:"required"`
	// ConfirmSwitch is the explicit confirmation of the clear-and-switch
	// prompt; without it a merchant mismatch is a 409.
	ConfirmSwitch bool `json:"confirmSwitch"`
}

func GetCart(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "GET /cart"
		defer handlePanic(c, routeName)

		sess, ok := sessionFor(c, manager, routeName)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, viewOf(sess.Cart))
	}
}

func AddCartItem(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "POST /cart/items"
		defer handlePanic(c, routeName)

		var req addItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, routeName, "invalid request body")
			return
		}
		if req.Restaurant.ID == "" {
			respondWithError(c, http.StatusBadRequest, routeName, "restaurant id is required")
			return
		}

		sess, ok := sessionFor(c, manager, routeName)
		if !ok {
			return
		}

		item := models.LineItem{
			ItemID:      req.Item.ItemID,
			ProductName: req.Item.ProductName,
			UnitPrice:   req.Item.Price,
			Quantity:    req.Item.Quantity,
			Image:       req.Item.Image,
			Provisional: req.Item.Provisional,
		}

		err := sess.Cart.AddItem(item, req.Restaurant)
		if errors.Is(err, cart.ErrMerchantConflict) && req.ConfirmSwitch {
			sess.Cart.SwitchMerchant(req.Restaurant)
			err = sess.Cart.AddItem(item, req.Restaurant)
		}
		if err != nil {
			respondWithDomainError(c, routeName, err)
			return
		}
		c.JSON(http.StatusOK, viewOf(sess.Cart))
	}
}

func IncrementCartItem(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "POST /cart/items/:id/increment"
		defer handlePanic(c, routeName)

		sess, ok := sessionFor(c, manager, routeName)
		if !ok {
			return
		}
		if err := sess.Cart.Increment(c.Param("id")); err != nil {
			respondWithDomainError(c, routeName, err)
			return
		}
		c.JSON(http.StatusOK, viewOf(sess.Cart))
	}
}

func DecrementCartItem(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "POST /cart/items/:id/decrement"
		defer handlePanic(c, routeName)

		sess, ok := sessionFor(c, manager, routeName)
		if !ok {
			return
		}
		if err := sess.Cart.Decrement(c.Param("id")); err != nil {
			respondWithDomainError(c, routeName, err)
			return
		}
		c.JSON(http.StatusOK, viewOf(sess.Cart))
	}
}

type confirmItemRequest struct {
	Price *float64 `json:"price" binding:"required"`
}

// ConfirmCartItem promotes a provisional row once the menu reload delivers
// the server price.
func ConfirmCartItem(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "POST /cart/items/:id/confirm"
		defer handlePanic(c, routeName)

		var req confirmItemRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Price == nil {
			respondWithError(c, http.StatusBadRequest, routeName, "invalid request body")
			return
		}

		sess, ok := sessionFor(c, manager, routeName)
		if !ok {
			return
		}
		if err := sess.Cart.ConfirmItem(c.Param("id"), *req.Price); err != nil {
			respondWithDomainError(c, routeName, err)
			return
		}
		c.JSON(http.StatusOK, viewOf(sess.Cart))
	}
}

type bulkRemoveRequest struct {
	ItemIDs []string `json:"itemIds" binding:"required"`
}

func BulkRemoveCartItems(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "POST /cart/items/bulk-remove"
		defer handlePanic(c, routeName)

		var req bulkRemoveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, routeName, "invalid request body")
			return
		}

		sess, ok := sessionFor(c, manager, routeName)
		if !ok {
			return
		}
		sess.Cart.BulkRemove(req.ItemIDs)
		c.JSON(http.StatusOK, viewOf(sess.Cart))
	}
}

func ClearCart(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "DELETE /cart"
		defer handlePanic(c, routeName)

		sess, ok := sessionFor(c, manager, routeName)
		if !ok {
			return
		}
		if err := sess.Cart.Clear(c.Request.Context()); err != nil {
			respondWithDomainError(c, routeName, err)
			return
		}
		c.JSON(http.StatusOK, viewOf(sess.Cart))
	}
}

type panelRequest struct {
	Visible *bool `json:"visible" binding:"required"`
}

func SetCartPanel(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const routeName = "PUT /cart/panel"
		defer handlePanic(c, routeName)

		var req panelRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Visible == nil {
			respondWithError(c, http.StatusBadRequest, routeName, "invalid request body")
			return
		}

		sess, ok := sessionFor(c, manager, routeName)
		if !ok {
			return
		}
		sess.Cart.SetPanelVisible(*req.Visible)
		c.JSON(http.StatusOK, viewOf(sess.Cart))
	}
}
