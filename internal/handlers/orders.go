package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kidotrendz/storefront/internal/listing"
)

// AdminListOrders executes the admin order read model: filter, sort, and
// reshape per the listing query parameters.
func (h HandlerSet) AdminListOrders(c *gin.Context) {
	query, err := listing.Parse(c.Request.URL.Query())
	if err != nil {
		h.fail(c, err)
		return
	}

	orders, err := h.orders.List(c.Request.Context(), query)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}
