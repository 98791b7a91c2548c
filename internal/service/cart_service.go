package service

import (
	"context"

	"storefront-backend/internal/gateway"
	"storefront-backend/internal/models"
	"storefront-backend/pkg/logger"
)

const (
	msgLoginToAdd = "Please log in to add items to cart"
	msgLoginFirst = "Please log in first"
	msgEmptyCart  = "Your cart is empty"
)

// CartService is the synchronization engine: the sole mutator of the cart
// mirror. Every mutation is a full round-trip to the backend; the mirror
// only reflects confirmed server state. No automatic retries.
type CartService struct {
	gateway CommerceGateway
	store   *CartStore
	pricing PricingUseCase
	cartIDs cartIDCache
}

func NewCartService(gw CommerceGateway, store *CartStore, pricing PricingUseCase, cartIDs cartIDCache) *CartService {
	return &CartService{
		gateway: gw,
		store:   store,
		pricing: pricing,
		cartIDs: cartIDs,
	}
}

// Load fetches the current cart. A backend 404 is the valid "no cart yet"
// state and maps to an empty snapshot. An unauthenticated identity resets
// the local mirror without touching the network.
func (s *CartService) Load(ctx context.Context, identity models.Identity) (*models.Cart, error) {
	if !identity.Authenticated {
		s.store.Drop(identity.UserID)
		return &models.Cart{}, nil
	}

	cart, err := s.gateway.GetCurrentCart(ctx, identity.Token)
	if err != nil {
		if gateway.IsKind(err, gateway.KindNotFound) {
			// The backend has no cart, so any cached identity is stale
			// (carts are consumed as a payment side effect).
			s.forgetCartIdentity(identity.UserID)
			empty := &models.Cart{}
			s.store.Replace(identity.UserID, empty)
			observeCartOp("load", nil)
			return empty, nil
		}
		s.handleFailure(identity, err)
		observeCartOp("load", err)
		return nil, err
	}

	// Prices are re-resolved on every load so a stale catalog price is
	// never carried across sessions.
	s.pricing.PriceCart(ctx, identity.Token, cart, true)
	s.install(identity, cart)
	observeCartOp("load", nil)
	return s.store.Snapshot(identity.UserID), nil
}

// Add appends or increments a line, lazily creating the backend cart
// identity when none exists yet.
func (s *CartService) Add(ctx context.Context, identity models.Identity, productID int64, quantity int) (*models.Cart, error) {
	if !identity.Authenticated {
		return nil, gateway.NewError(gateway.KindAuthRequired, msgLoginToAdd)
	}
	if quantity < 1 {
		quantity = 1
	}

	cartID, err := s.cartIdentity(ctx, identity)
	if err != nil {
		s.handleFailure(identity, err)
		observeCartOp("add", err)
		return nil, err
	}

	cart, err := s.gateway.AddItem(ctx, identity.Token, cartID, productID, quantity)
	if gateway.IsKind(err, gateway.KindNotFound) {
		// The identity pointed at a cart the backend no longer has.
		// Forget it, create a fresh cart and retry once.
		s.forgetCartIdentity(identity.UserID)
		s.store.Replace(identity.UserID, &models.Cart{})

		cartID, err = s.cartIdentity(ctx, identity)
		if err == nil {
			cart, err = s.gateway.AddItem(ctx, identity.Token, cartID, productID, quantity)
		}
	}
	if err != nil {
		s.handleFailure(identity, err)
		observeCartOp("add", err)
		return nil, err
	}

	s.pricing.PriceCart(ctx, identity.Token, cart, false)
	s.install(identity, cart)
	observeCartOp("add", nil)
	return s.store.Snapshot(identity.UserID), nil
}

// UpdateQuantity replaces a line's quantity. A non-positive quantity
// delegates to Remove; a quantity of zero is never persisted.
func (s *CartService) UpdateQuantity(ctx context.Context, identity models.Identity, productID int64, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return s.Remove(ctx, identity, productID)
	}
	if !identity.Authenticated {
		return nil, gateway.NewError(gateway.KindAuthRequired, msgLoginFirst)
	}

	snapshot := s.store.Snapshot(identity.UserID)
	if snapshot.CartID == "" {
		return nil, gateway.NewError(gateway.KindValidation, msgEmptyCart)
	}

	cart, err := s.gateway.UpdateItem(ctx, identity.Token, snapshot.CartID, productID, quantity)
	if err != nil {
		s.handleFailure(identity, err)
		observeCartOp("update_quantity", err)
		return nil, err
	}

	s.pricing.PriceCart(ctx, identity.Token, cart, false)
	s.install(identity, cart)
	observeCartOp("update_quantity", nil)
	return s.store.Snapshot(identity.UserID), nil
}

// Remove deletes a line. Absence of the line is not an error; removing
// from a cart that was never created succeeds without a network call.
func (s *CartService) Remove(ctx context.Context, identity models.Identity, productID int64) (*models.Cart, error) {
	if !identity.Authenticated {
		return nil, gateway.NewError(gateway.KindAuthRequired, msgLoginFirst)
	}

	snapshot := s.store.Snapshot(identity.UserID)
	if snapshot.CartID == "" {
		observeCartOp("remove", nil)
		return snapshot, nil
	}

	cart, err := s.gateway.RemoveItem(ctx, identity.Token, snapshot.CartID, productID)
	if err != nil {
		if gateway.IsKind(err, gateway.KindNotFound) {
			observeCartOp("remove", nil)
			return snapshot, nil
		}
		s.handleFailure(identity, err)
		observeCartOp("remove", err)
		return nil, err
	}

	s.pricing.PriceCart(ctx, identity.Token, cart, false)
	s.install(identity, cart)
	observeCartOp("remove", nil)
	return s.store.Snapshot(identity.UserID), nil
}

// Clear empties all lines but preserves the cart identity.
func (s *CartService) Clear(ctx context.Context, identity models.Identity) (*models.Cart, error) {
	if !identity.Authenticated {
		return nil, gateway.NewError(gateway.KindAuthRequired, msgLoginFirst)
	}

	snapshot := s.store.Snapshot(identity.UserID)
	if snapshot.CartID != "" {
		if err := s.gateway.ClearCart(ctx, identity.Token, snapshot.CartID); err != nil {
			s.handleFailure(identity, err)
			observeCartOp("clear", err)
			return nil, err
		}
	}

	cleared := &models.Cart{CartID: snapshot.CartID}
	s.store.Replace(identity.UserID, cleared)
	observeCartOp("clear", nil)
	return s.store.Snapshot(identity.UserID), nil
}

// Delete destroys the cart identity entirely, used after a completed
// checkout since the paid-for cart must not be reused.
func (s *CartService) Delete(ctx context.Context, identity models.Identity) (*models.Cart, error) {
	if !identity.Authenticated {
		return nil, gateway.NewError(gateway.KindAuthRequired, msgLoginFirst)
	}

	snapshot := s.store.Snapshot(identity.UserID)
	if snapshot.CartID != "" {
		if err := s.gateway.DeleteCart(ctx, identity.Token, snapshot.CartID); err != nil {
			s.handleFailure(identity, err)
			observeCartOp("delete", err)
			return nil, err
		}
	}

	s.forgetCartIdentity(identity.UserID)
	s.store.Replace(identity.UserID, &models.Cart{})
	observeCartOp("delete", nil)
	return s.store.Snapshot(identity.UserID), nil
}

// Refresh re-fetches and replaces local state after an out-of-band
// server-side mutation, without assuming what the new state is.
func (s *CartService) Refresh(ctx context.Context, identity models.Identity) (*models.Cart, error) {
	return s.Load(ctx, identity)
}

// cartIdentity returns the backend cart id, from the mirror, then the
// cache, then by creating a fresh cart upstream.
func (s *CartService) cartIdentity(ctx context.Context, identity models.Identity) (string, error) {
	if snapshot := s.store.Snapshot(identity.UserID); snapshot.CartID != "" {
		return snapshot.CartID, nil
	}

	if cartID, err := s.cartIDs.GetCachedCartID(identity.UserID); err == nil && cartID != "" {
		return cartID, nil
	}

	cartID, err := s.gateway.CreateCart(ctx, identity.Token)
	if err != nil {
		return "", err
	}
	if err := s.cartIDs.CacheCartID(identity.UserID, cartID); err != nil {
		logger.Warn("Failed to cache cart id", map[string]interface{}{"user_id": identity.UserID, "error": err.Error()})
	}
	return cartID, nil
}

func (s *CartService) install(identity models.Identity, cart *models.Cart) {
	s.store.Replace(identity.UserID, cart)
	if cart != nil && cart.CartID != "" {
		if err := s.cartIDs.CacheCartID(identity.UserID, cart.CartID); err != nil {
			logger.Warn("Failed to cache cart id", map[string]interface{}{"user_id": identity.UserID, "error": err.Error()})
		}
	}
}

// forgetCartIdentity discards the cached backend cart id so the next add
// creates a fresh cart.
func (s *CartService) forgetCartIdentity(userID uint) {
	if err := s.cartIDs.InvalidateCartID(userID); err != nil {
		logger.Warn("Failed to invalidate cached cart id", map[string]interface{}{"user_id": userID, "error": err.Error()})
	}
}

// handleFailure drops the local mirror when the backend revokes the
// session; all other failures leave the last confirmed state in place.
func (s *CartService) handleFailure(identity models.Identity, err error) {
	if gateway.IsKind(err, gateway.KindSessionExpired) {
		s.store.Drop(identity.UserID)
		s.forgetCartIdentity(identity.UserID)
	}
}
