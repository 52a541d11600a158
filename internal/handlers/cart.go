package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kidotrendz/storefront/internal/apierr"
	"kidotrendz/storefront/internal/models"
)

func (h HandlerSet) GetCart(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	items := user.CartItems
	if items == nil {
		items = []models.CartRef{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type replaceCartRequest struct {
	Items []models.CartRef `json:"items"`
}

// ReplaceCart overwrites the server-known cart state wholesale; the client
// cart is authoritative between syncs.
func (h HandlerSet) ReplaceCart(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req replaceCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for _, item := range req.Items {
		if item.ProductID == "" || item.Quantity < 1 {
			h.fail(c, apierr.InvalidArgument("cart items need a product id and quantity >= 1"))
			return
		}
	}

	if err := h.users.ReplaceCart(c.Request.Context(), user.ID, req.Items); err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
