package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kidotrendz/storefront/internal/listing"
	"kidotrendz/storefront/internal/models"
)

func (h HandlerSet) ShopProducts(c *gin.Context) {
	products, err := h.catalog.Shop(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h HandlerSet) FeaturedProducts(c *gin.Context) {
	products, err := h.catalog.Featured(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h HandlerSet) ProductsByCategory(c *gin.Context) {
	products, err := h.catalog.ByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h HandlerSet) ProductsByGender(c *gin.Context) {
	products, err := h.catalog.ByGender(c.Request.Context(), c.Param("gender"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h HandlerSet) RecommendedProducts(c *gin.Context) {
	products, err := h.catalog.Recommend(c.Request.Context(), 4)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h HandlerSet) ProductByID(c *gin.Context) {
	product, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// ListProducts is the admin listing; it accepts the same filter/sort
// parameters as the order listing.
func (h HandlerSet) ListProducts(c *gin.Context) {
	query, err := listing.Parse(c.Request.URL.Query())
	if err != nil {
		h.fail(c, err)
		return
	}

	products, err := h.catalog.List(c.Request.Context(), query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

type createProductRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Price       float64  `json:"price" binding:"required,gt=0"`
	Image       string   `json:"image"`
	Category    string   `json:"category" binding:"required"`
	Gender      string   `json:"gender"`
	Sizes       []string `json:"sizes"`
	IsFeatured  bool     `json:"isFeatured"`
}

func (h HandlerSet) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Category:    req.Category,
		Gender:      req.Gender,
		Sizes:       req.Sizes,
		IsFeatured:  req.IsFeatured,
	}
	if err := h.catalog.Create(c.Request.Context(), &product); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h HandlerSet) ToggleFeatured(c *gin.Context) {
	product, err := h.catalog.ToggleFeatured(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h HandlerSet) DeleteProduct(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
