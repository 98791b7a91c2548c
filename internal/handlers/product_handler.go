package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/middleware"
	"storefront-backend/internal/service"
)

type ProductHandler struct {
	pricingService service.PricingUseCase
}

func NewProductHandler(pricingService service.PricingUseCase) *ProductHandler {
	return &ProductHandler{pricingService: pricingService}
}

// Get serves a product through the read-through cache. refresh=true forces
// a catalog round-trip.
func (h *ProductHandler) Get(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	refresh := c.Query("refresh") == "true"
	product, err := h.pricingService.Product(c.Request.Context(), middleware.IdentityFrom(c).Token, productID, refresh)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}
