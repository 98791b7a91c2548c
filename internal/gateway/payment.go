package gateway

import (
	"context"
	"net/http"
	"net/url"

	"storefront-backend/internal/models"
)

// CreatePaymentSession asks the backend to open a hosted payment session
// keyed by the cart identity. The answer carries the processor redirect URL
// and the opaque session reference used to verify the outcome later.
func (c *Client) CreatePaymentSession(ctx context.Context, token, cartID string) (*models.PaymentSession, error) {
	body := struct {
		CartID     string `json:"cartId"`
		SuccessURL string `json:"successUrl,omitempty"`
		CancelURL  string `json:"cancelUrl,omitempty"`
	}{CartID: cartID, SuccessURL: c.successURL, CancelURL: c.cancelURL}

	var session models.PaymentSession
	if err := c.do(ctx, http.MethodPost, "/api/stripe/create-checkout-session", token, body, &session); err != nil {
		return nil, err
	}

	if session.SessionID == "" || session.SessionURL == "" {
		return nil, &Error{Kind: KindBackend, Message: "Failed to create checkout session"}
	}
	return &session, nil
}

// VerifyPaymentSession confirms the outcome of an external session reference.
func (c *Client) VerifyPaymentSession(ctx context.Context, token, sessionRef string) (*models.SessionVerification, error) {
	var verification models.SessionVerification
	path := "/api/stripe/verify-session/" + url.PathEscape(sessionRef)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &verification); err != nil {
		return nil, err
	}
	return &verification, nil
}
