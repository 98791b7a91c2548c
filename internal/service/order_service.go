package service

import (
	"context"

	"storefront-backend/internal/gateway"
	"storefront-backend/internal/models"
)

// OrderService is a read-only passthrough for order tracking; orders are
// owned entirely by the backend.
type OrderService struct {
	orders OrderGateway
}

func NewOrderService(orders OrderGateway) *OrderService {
	return &OrderService{orders: orders}
}

func (s *OrderService) List(ctx context.Context, identity models.Identity) ([]models.Order, error) {
	if !identity.Authenticated {
		return nil, gateway.NewError(gateway.KindAuthRequired, msgLoginFirst)
	}
	return s.orders.ListOrders(ctx, identity.Token)
}

func (s *OrderService) Get(ctx context.Context, identity models.Identity, orderID int64) (*models.Order, error) {
	if !identity.Authenticated {
		return nil, gateway.NewError(gateway.KindAuthRequired, msgLoginFirst)
	}
	return s.orders.GetOrder(ctx, identity.Token, orderID)
}
