package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/gateway"
)

// respondError translates a service error into a JSON error body. The
// failure kind travels with the message so clients can branch on it
// without parsing text.
func respondError(c *gin.Context, err error) {
	kind := gateway.KindOf(err)
	c.JSON(statusForKind(kind, err), gin.H{
		"success": false,
		"error":   gateway.MessageOf(err),
		"kind":    string(kind),
	})
}

func statusForKind(kind gateway.Kind, err error) int {
	switch kind {
	case gateway.KindAuthRequired, gateway.KindSessionExpired:
		return http.StatusUnauthorized
	case gateway.KindValidation:
		return http.StatusBadRequest
	case gateway.KindNotFound:
		return http.StatusNotFound
	case gateway.KindNetwork:
		return http.StatusBadGateway
	case gateway.KindVerificationMismatch:
		return http.StatusPaymentRequired
	case gateway.KindAbandonedSession:
		return http.StatusConflict
	}

	var gatewayErr *gateway.Error
	if errors.As(err, &gatewayErr) && gatewayErr.Status >= http.StatusBadRequest {
		return gatewayErr.Status
	}
	return http.StatusBadGateway
}
