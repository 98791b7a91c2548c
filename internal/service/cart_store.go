package service

import (
	"sync"

	"github.com/shopspring/decimal"

	"storefront-backend/internal/models"
)

// CartSubscriber is notified with a snapshot copy after every mirror
// replacement. The presentation layer is a pure subscriber and never
// mutates cart state directly.
type CartSubscriber func(userID uint, cart *models.Cart)

// CartStore is the in-memory mirror of the server-authoritative cart, one
// snapshot per authenticated user. Only the cart engine replaces snapshots;
// everything else reads derived values.
type CartStore struct {
	mu          sync.RWMutex
	carts       map[uint]*models.Cart
	subscribers []CartSubscriber
}

func NewCartStore() *CartStore {
	return &CartStore{
		carts: make(map[uint]*models.Cart),
	}
}

// Subscribe registers a notification callback. Not safe to call after
// concurrent use has started; wire subscribers at composition time.
func (s *CartStore) Subscribe(fn CartSubscriber) {
	s.subscribers = append(s.subscribers, fn)
}

// Replace installs a new snapshot for the user and notifies subscribers.
// A nil cart resets the mirror to the empty, identity-less state.
func (s *CartStore) Replace(userID uint, cart *models.Cart) {
	snapshot := copyCart(cart)
	if snapshot == nil {
		snapshot = &models.Cart{}
	}

	s.mu.Lock()
	s.carts[userID] = snapshot
	s.mu.Unlock()

	for _, fn := range s.subscribers {
		fn(userID, copyCart(snapshot))
	}
}

// Drop clears the local mirror only. Used on auth loss; the remote cart is
// left untouched.
func (s *CartStore) Drop(userID uint) {
	s.mu.Lock()
	delete(s.carts, userID)
	s.mu.Unlock()

	for _, fn := range s.subscribers {
		fn(userID, &models.Cart{})
	}
}

// Snapshot returns a copy of the user's mirrored cart; an empty cart when
// none is mirrored.
func (s *CartStore) Snapshot(userID uint) *models.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, ok := s.carts[userID]
	if !ok {
		return &models.Cart{}
	}
	return copyCart(cart)
}

// Count is the sum of all line quantities; 0 for an absent cart.
func (s *CartStore) Count(userID uint) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, ok := s.carts[userID]
	if !ok {
		return 0
	}

	count := 0
	for _, item := range cart.Items {
		count += item.Quantity
	}
	return count
}

// Total prefers the server-reported amount; otherwise it sums resolved
// unit prices, rounding each line subtotal to two currency decimals so the
// fallback never drifts from the server's own rounding.
func (s *CartStore) Total(userID uint) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, ok := s.carts[userID]
	if !ok {
		return decimal.Zero
	}
	return cartTotal(cart)
}

func cartTotal(cart *models.Cart) decimal.Decimal {
	if cart.TotalAmount != nil {
		return *cart.TotalAmount
	}

	total := decimal.Zero
	for _, item := range cart.Items {
		if item.UnitPrice == nil {
			continue
		}
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		total = total.Add(line)
	}
	return total.Round(2)
}

func (s *CartStore) Contains(userID uint, productID int64) bool {
	return s.QuantityOf(userID, productID) > 0
}

func (s *CartStore) QuantityOf(userID uint, productID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, ok := s.carts[userID]
	if !ok {
		return 0
	}
	for _, item := range cart.Items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

func copyCart(cart *models.Cart) *models.Cart {
	if cart == nil {
		return nil
	}

	dup := &models.Cart{CartID: cart.CartID}
	if cart.TotalAmount != nil {
		amount := *cart.TotalAmount
		dup.TotalAmount = &amount
	}
	if len(cart.Items) > 0 {
		dup.Items = make([]models.CartItem, len(cart.Items))
		for i, item := range cart.Items {
			dup.Items[i] = item
			if item.UnitPrice != nil {
				price := *item.UnitPrice
				dup.Items[i].UnitPrice = &price
			}
		}
	}
	return dup
}
