package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Identity describes the caller of a request. Cart state is only loaded,
// mutated or trusted while Authenticated is true.
type Identity struct {
	UserID        uint
	Email         string
	Token         string
	Authenticated bool
}

// Cart mirrors the server-authoritative cart. CartID is empty until the
// backend creates a cart on the first successful item add.
type Cart struct {
	CartID      string           `json:"cartId"`
	Items       []CartItem       `json:"items"`
	TotalAmount *decimal.Decimal `json:"totalAmount,omitempty"`
}

// Empty reports whether the cart has no backend identity and no lines.
func (c *Cart) Empty() bool {
	return c == nil || (c.CartID == "" && len(c.Items) == 0)
}

// CartItem is a single cart line. Quantity is always >= 1; a decrement to
// zero removes the line instead. UnitPrice is joined from the product
// catalog after load and is nil until resolved.
type CartItem struct {
	ProductID int64            `json:"productId"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
}

type Product struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl,omitempty"`
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

type Order struct {
	ID          int64           `json:"id"`
	Status      OrderStatus     `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// PaymentSession is the backend's answer to a create-payment-session call:
// where to send the customer and the opaque reference to verify later.
type PaymentSession struct {
	SessionID  string `json:"sessionId"`
	SessionURL string `json:"sessionUrl"`
}

type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailure PaymentStatus = "FAILURE"
)

// SessionVerification is the verified outcome of an external payment
// session reference.
type SessionVerification struct {
	SessionID string        `json:"sessionId"`
	Status    PaymentStatus `json:"status"`
	OrderID   int64         `json:"orderId,omitempty"`
}

type AddItemRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int   `json:"quantity"`
}

type UpdateItemRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int   `json:"quantity"`
}
