package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/middleware"
	"storefront-backend/internal/models"
	"storefront-backend/internal/service"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutUseCase
}

func NewCheckoutHandler(checkoutService service.CheckoutUseCase) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// Begin opens a checkout session and returns the hosted payment page URL
// for the client to redirect to.
func (h *CheckoutHandler) Begin(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, redirectURL, err := h.checkoutService.Begin(c.Request.Context(), middleware.IdentityFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session":     session,
		"redirectUrl": redirectURL,
	})
}

// Return handles the customer coming back from the payment processor. The
// session_id query parameter is present on the success leg and absent when
// the customer abandoned the hosted page.
func (h *CheckoutHandler) Return(c *gin.Context) {
	session, err := h.checkoutService.Complete(c.Request.Context(), middleware.IdentityFrom(c), c.Query("session_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *CheckoutHandler) Get(c *gin.Context) {
	session, err := h.checkoutService.Get(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}
