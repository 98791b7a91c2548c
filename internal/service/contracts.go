package service

import (
	"context"

	"storefront-backend/internal/models"
)

// CommerceGateway is the outbound cart surface of the backend API.
type CommerceGateway interface {
	GetCurrentCart(ctx context.Context, token string) (*models.Cart, error)
	CreateCart(ctx context.Context, token string) (string, error)
	AddItem(ctx context.Context, token, cartID string, productID int64, quantity int) (*models.Cart, error)
	UpdateItem(ctx context.Context, token, cartID string, productID int64, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, token, cartID string, productID int64) (*models.Cart, error)
	ClearCart(ctx context.Context, token, cartID string) error
	DeleteCart(ctx context.Context, token, cartID string) error
}

// PaymentGateway opens and verifies hosted payment sessions.
type PaymentGateway interface {
	CreatePaymentSession(ctx context.Context, token, cartID string) (*models.PaymentSession, error)
	VerifyPaymentSession(ctx context.Context, token, sessionRef string) (*models.SessionVerification, error)
}

// CatalogGateway resolves product data for price joins.
type CatalogGateway interface {
	GetProduct(ctx context.Context, token string, productID int64) (*models.Product, error)
}

// OrderGateway reads the caller's orders.
type OrderGateway interface {
	ListOrders(ctx context.Context, token string) ([]models.Order, error)
	GetOrder(ctx context.Context, token string, orderID int64) (*models.Order, error)
}

type CartUseCase interface {
	Load(ctx context.Context, identity models.Identity) (*models.Cart, error)
	Add(ctx context.Context, identity models.Identity, productID int64, quantity int) (*models.Cart, error)
	UpdateQuantity(ctx context.Context, identity models.Identity, productID int64, quantity int) (*models.Cart, error)
	Remove(ctx context.Context, identity models.Identity, productID int64) (*models.Cart, error)
	Clear(ctx context.Context, identity models.Identity) (*models.Cart, error)
	Delete(ctx context.Context, identity models.Identity) (*models.Cart, error)
	Refresh(ctx context.Context, identity models.Identity) (*models.Cart, error)
}

type CheckoutUseCase interface {
	Begin(ctx context.Context, identity models.Identity, req models.CheckoutRequest) (*models.CheckoutSession, string, error)
	Complete(ctx context.Context, identity models.Identity, sessionRef string) (*models.CheckoutSession, error)
	Get(ctx context.Context, identity models.Identity, sessionID string) (*models.CheckoutSession, error)
}

type PricingUseCase interface {
	Product(ctx context.Context, token string, productID int64, refresh bool) (*models.Product, error)
	PriceCart(ctx context.Context, token string, cart *models.Cart, refresh bool)
}

type OrderUseCase interface {
	List(ctx context.Context, identity models.Identity) ([]models.Order, error)
	Get(ctx context.Context, identity models.Identity, orderID int64) (*models.Order, error)
}

// productCache is the slice of pkg/cache used for the price read-through.
type productCache interface {
	CacheProduct(productID int64, product interface{}) error
	GetCachedProduct(productID int64, dest interface{}) error
	InvalidateProduct(productID int64) error
}

// cartIDCache caches the backend cart identifier per user to avoid
// redundant cart-creation calls.
type cartIDCache interface {
	CacheCartID(userID uint, cartID string) error
	GetCachedCartID(userID uint) (string, error)
	InvalidateCartID(userID uint) error
}
