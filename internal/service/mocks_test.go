package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"storefront-backend/internal/gateway"
	"storefront-backend/internal/models"
	"storefront-backend/internal/repository"
	"storefront-backend/pkg/validator"
)

func TestMain(m *testing.M) {
	validator.Init()
	os.Exit(m.Run())
}

// fakeGateway simulates the server-authoritative backend: it owns the
// remote cart and records every network call.
type fakeGateway struct {
	cart        *models.Cart
	nextCartSeq int
	products    map[int64]models.Product

	failWith error

	paymentSession *models.PaymentSession
	paymentErr     error
	verification   *models.SessionVerification
	verifyErr      error

	calls []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		products: make(map[int64]models.Product),
		paymentSession: &models.PaymentSession{
			SessionID:  "sess_abc",
			SessionURL: "https://pay.example.com/sess_abc",
		},
		verification: &models.SessionVerification{
			SessionID: "sess_abc",
			Status:    models.PaymentStatusSuccess,
			OrderID:   101,
		},
	}
}

func (f *fakeGateway) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeGateway) callCount() int {
	return len(f.calls)
}

func (f *fakeGateway) remoteCopy() *models.Cart {
	return copyCart(f.cart)
}

func (f *fakeGateway) GetCurrentCart(_ context.Context, _ string) (*models.Cart, error) {
	f.record("get_cart")
	if f.failWith != nil {
		return nil, f.failWith
	}
	if f.cart == nil {
		return nil, gateway.NewError(gateway.KindNotFound, "cart not found")
	}
	return f.remoteCopy(), nil
}

func (f *fakeGateway) CreateCart(_ context.Context, _ string) (string, error) {
	f.record("create_cart")
	if f.failWith != nil {
		return "", f.failWith
	}
	f.nextCartSeq++
	f.cart = &models.Cart{CartID: fmt.Sprintf("cart-%d", f.nextCartSeq)}
	return f.cart.CartID, nil
}

func (f *fakeGateway) AddItem(_ context.Context, _, cartID string, productID int64, quantity int) (*models.Cart, error) {
	f.record("add_item")
	if f.failWith != nil {
		return nil, f.failWith
	}
	if f.cart == nil || f.cart.CartID != cartID {
		return nil, gateway.NewError(gateway.KindNotFound, "cart not found")
	}
	for i := range f.cart.Items {
		if f.cart.Items[i].ProductID == productID {
			f.cart.Items[i].Quantity += quantity
			return f.remoteCopy(), nil
		}
	}
	f.cart.Items = append(f.cart.Items, models.CartItem{ProductID: productID, Quantity: quantity})
	return f.remoteCopy(), nil
}

func (f *fakeGateway) UpdateItem(_ context.Context, _, cartID string, productID int64, quantity int) (*models.Cart, error) {
	f.record("update_item")
	if f.failWith != nil {
		return nil, f.failWith
	}
	if f.cart == nil || f.cart.CartID != cartID {
		return nil, gateway.NewError(gateway.KindNotFound, "cart not found")
	}
	for i := range f.cart.Items {
		if f.cart.Items[i].ProductID == productID {
			f.cart.Items[i].Quantity = quantity
		}
	}
	return f.remoteCopy(), nil
}

func (f *fakeGateway) RemoveItem(_ context.Context, _, cartID string, productID int64) (*models.Cart, error) {
	f.record("remove_item")
	if f.failWith != nil {
		return nil, f.failWith
	}
	if f.cart == nil || f.cart.CartID != cartID {
		return nil, gateway.NewError(gateway.KindNotFound, "cart not found")
	}
	items := f.cart.Items[:0]
	for _, item := range f.cart.Items {
		if item.ProductID != productID {
			items = append(items, item)
		}
	}
	f.cart.Items = items
	return f.remoteCopy(), nil
}

func (f *fakeGateway) ClearCart(_ context.Context, _, cartID string) error {
	f.record("clear_cart")
	if f.failWith != nil {
		return f.failWith
	}
	if f.cart != nil && f.cart.CartID == cartID {
		f.cart.Items = nil
	}
	return nil
}

func (f *fakeGateway) DeleteCart(_ context.Context, _, cartID string) error {
	f.record("delete_cart")
	if f.failWith != nil {
		return f.failWith
	}
	if f.cart != nil && f.cart.CartID == cartID {
		f.cart = nil
	}
	return nil
}

func (f *fakeGateway) CreatePaymentSession(_ context.Context, _, _ string) (*models.PaymentSession, error) {
	f.record("create_payment_session")
	if f.paymentErr != nil {
		return nil, f.paymentErr
	}
	return f.paymentSession, nil
}

func (f *fakeGateway) VerifyPaymentSession(_ context.Context, _, _ string) (*models.SessionVerification, error) {
	f.record("verify_payment_session")
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verification, nil
}

func (f *fakeGateway) GetProduct(_ context.Context, _ string, productID int64) (*models.Product, error) {
	f.record("get_product")
	if f.failWith != nil {
		return nil, f.failWith
	}
	product, ok := f.products[productID]
	if !ok {
		return nil, gateway.NewError(gateway.KindNotFound, "product not found")
	}
	return &product, nil
}

// fakeProductCache is an in-memory stand-in for the Redis product cache.
type fakeProductCache struct {
	products map[int64]models.Product
	hits     int
}

func newFakeProductCache() *fakeProductCache {
	return &fakeProductCache{products: make(map[int64]models.Product)}
}

func (c *fakeProductCache) CacheProduct(productID int64, product interface{}) error {
	if p, ok := product.(*models.Product); ok {
		c.products[productID] = *p
	}
	return nil
}

func (c *fakeProductCache) GetCachedProduct(productID int64, dest interface{}) error {
	product, ok := c.products[productID]
	if !ok {
		return fmt.Errorf("cache miss")
	}
	if p, ok := dest.(*models.Product); ok {
		*p = product
		c.hits++
		return nil
	}
	return fmt.Errorf("unexpected dest type")
}

func (c *fakeProductCache) InvalidateProduct(productID int64) error {
	delete(c.products, productID)
	return nil
}

type fakeCartIDCache struct {
	ids map[uint]string
}

func newFakeCartIDCache() *fakeCartIDCache {
	return &fakeCartIDCache{ids: make(map[uint]string)}
}

func (c *fakeCartIDCache) CacheCartID(userID uint, cartID string) error {
	c.ids[userID] = cartID
	return nil
}

func (c *fakeCartIDCache) GetCachedCartID(userID uint) (string, error) {
	cartID, ok := c.ids[userID]
	if !ok {
		return "", fmt.Errorf("cache miss")
	}
	return cartID, nil
}

func (c *fakeCartIDCache) InvalidateCartID(userID uint) error {
	delete(c.ids, userID)
	return nil
}

// memorySessionRepository keeps checkout sessions in a map, mirroring the
// gorm-backed repository contract.
type memorySessionRepository struct {
	sessions map[string]models.CheckoutSession
	seq      int
}

func newMemorySessionRepository() *memorySessionRepository {
	return &memorySessionRepository{sessions: make(map[string]models.CheckoutSession)}
}

func (r *memorySessionRepository) Create(session *models.CheckoutSession) error {
	r.seq++
	session.CreatedAt = time.Unix(int64(r.seq), 0)
	r.sessions[session.ID] = *session
	return nil
}

func (r *memorySessionRepository) Update(session *models.CheckoutSession) error {
	r.sessions[session.ID] = *session
	return nil
}

func (r *memorySessionRepository) GetByID(id string) (*models.CheckoutSession, error) {
	session, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return &session, nil
}

func (r *memorySessionRepository) GetByExternalRef(ref string) (*models.CheckoutSession, error) {
	for _, session := range r.sessions {
		if session.ExternalSessionRef == ref {
			s := session
			return &s, nil
		}
	}
	return nil, repository.ErrSessionNotFound
}

func (r *memorySessionRepository) GetLatestPendingByUser(userID uint) (*models.CheckoutSession, error) {
	var pending []models.CheckoutSession
	for _, session := range r.sessions {
		if session.UserID == userID && session.State == models.CheckoutStateAwaitingPayment {
			pending = append(pending, session)
		}
	}
	if len(pending) == 0 {
		return nil, repository.ErrSessionNotFound
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.After(pending[j].CreatedAt)
	})
	return &pending[0], nil
}

func decimalPtr(value string) *decimal.Decimal {
	d := decimal.RequireFromString(value)
	return &d
}

func authedIdentity(userID uint) models.Identity {
	return models.Identity{
		UserID:        userID,
		Email:         "user@example.com",
		Token:         "token",
		Authenticated: true,
	}
}

func buildCartService(gw *fakeGateway) (*CartService, *CartStore, *fakeCartIDCache) {
	store := NewCartStore()
	cache := newFakeCartIDCache()
	pricing := NewPricingService(gw, newFakeProductCache())
	return NewCartService(gw, store, pricing, cache), store, cache
}
