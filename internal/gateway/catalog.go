package gateway

import (
	"context"
	"fmt"
	"net/http"

	"storefront-backend/internal/models"
)

// GetProduct fetches a catalog product, used to join unit prices onto cart
// lines. The cart itself never stores prices.
func (c *Client) GetProduct(ctx context.Context, token string, productID int64) (*models.Product, error) {
	var product models.Product
	path := fmt.Sprintf("/api/v1/products/%d", productID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ListOrders returns the authenticated identity's orders.
func (c *Client) ListOrders(ctx context.Context, token string) ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(ctx, http.MethodGet, "/orders", token, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder returns a single order by id.
func (c *Client) GetOrder(ctx context.Context, token string, orderID int64) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/orders/%d", orderID), token, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
