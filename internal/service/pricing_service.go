package service

import (
	"context"

	"storefront-backend/internal/models"
	"storefront-backend/pkg/logger"
)

// PricingService joins catalog prices onto cart lines through a
// read-through cache. The upstream cart stores no prices.
type PricingService struct {
	catalog CatalogGateway
	cache   productCache
}

func NewPricingService(catalog CatalogGateway, cache productCache) *PricingService {
	return &PricingService{
		catalog: catalog,
		cache:   cache,
	}
}

// Product resolves a product, consulting the cache first unless refresh is
// set, in which case the catalog is authoritative and the cache updated.
func (s *PricingService) Product(ctx context.Context, token string, productID int64, refresh bool) (*models.Product, error) {
	if !refresh {
		var cached models.Product
		if err := s.cache.GetCachedProduct(productID, &cached); err == nil {
			return &cached, nil
		}
	}

	product, err := s.catalog.GetProduct(ctx, token, productID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.CacheProduct(productID, product); err != nil {
		logger.Warn("Failed to cache product", map[string]interface{}{"product_id": productID, "error": err.Error()})
	}
	return product, nil
}

// PriceCart fills in unit prices for every line. A line whose product
// cannot be resolved keeps a nil price; display falls back gracefully and
// the server-reported total still wins when present.
func (s *PricingService) PriceCart(ctx context.Context, token string, cart *models.Cart, refresh bool) {
	if cart == nil {
		return
	}

	for i := range cart.Items {
		product, err := s.Product(ctx, token, cart.Items[i].ProductID, refresh)
		if err != nil {
			logger.Warn("Failed to resolve product price", map[string]interface{}{
				"product_id": cart.Items[i].ProductID,
				"error":      err.Error(),
			})
			cart.Items[i].UnitPrice = nil
			continue
		}
		price := product.Price
		cart.Items[i].UnitPrice = &price
	}
}
