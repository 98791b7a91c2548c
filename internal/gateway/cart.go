package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"storefront-backend/internal/models"
)

// GetCurrentCart loads the cart for the authenticated identity. A 404 is
// returned as a KindNotFound error; callers treat it as the valid
// "no cart yet" state, not a failure.
func (c *Client) GetCurrentCart(ctx context.Context, token string) (*models.Cart, error) {
	var cart models.Cart
	if err := c.do(ctx, http.MethodGet, "/cart/my-cart", token, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// CreateCart lazily creates a cart identity. The response body is the new
// cart identifier, either as a bare value or quoted.
func (c *Client) CreateCart(ctx context.Context, token string) (string, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/cart", token, struct{}{}, &raw); err != nil {
		return "", err
	}

	cartID := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if cartID == "" {
		return "", &Error{Kind: KindBackend, Message: "cart creation returned no identifier"}
	}
	return cartID, nil
}

// AddItem appends or increments a cart line and returns the full updated cart.
func (c *Client) AddItem(ctx context.Context, token, cartID string, productID int64, quantity int) (*models.Cart, error) {
	body := models.AddItemRequest{ProductID: productID, Quantity: quantity}
	var cart models.Cart
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/cart/%s/items", cartID), token, body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// UpdateItem replaces a line's quantity and returns the full updated cart.
func (c *Client) UpdateItem(ctx context.Context, token, cartID string, productID int64, quantity int) (*models.Cart, error) {
	body := models.UpdateItemRequest{ProductID: productID, Quantity: quantity}
	var cart models.Cart
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/cart/%s/items", cartID), token, body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// RemoveItem deletes a line and returns the full updated cart.
func (c *Client) RemoveItem(ctx context.Context, token, cartID string, productID int64) (*models.Cart, error) {
	var cart models.Cart
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/cart/%s/items/%d", cartID, productID), token, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// ClearCart empties all lines but preserves the cart identity.
func (c *Client) ClearCart(ctx context.Context, token, cartID string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/cart/%s/clear", cartID), token, nil, nil)
}

// DeleteCart destroys the cart identity entirely.
func (c *Client) DeleteCart(ctx context.Context, token, cartID string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/cart/%s", cartID), token, nil, nil)
}
