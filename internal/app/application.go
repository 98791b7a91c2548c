package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"storefront-backend/internal/config"
	"storefront-backend/internal/gateway"
	"storefront-backend/internal/handlers"
	"storefront-backend/internal/middleware"
	"storefront-backend/internal/models"
	"storefront-backend/internal/repository"
	"storefront-backend/internal/service"
	"storefront-backend/pkg/cache"
	"storefront-backend/pkg/logger"
)

type Application struct {
	cfg *config.Config

	db      *gorm.DB
	cache   *cache.Cache
	backend *gateway.Client
	store   *service.CartStore

	repositories repositoryContainer
	services     serviceContainer
	handlers     handlerContainer

	router *gin.Engine
	server *http.Server
}

type repositoryContainer struct {
	CheckoutSession repository.CheckoutSessionRepository
}

type serviceContainer struct {
	Pricing  *service.PricingService
	Cart     *service.CartService
	Checkout *service.CheckoutService
	Order    *service.OrderService
}

type handlerContainer struct {
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Order    *handlers.OrderHandler
	Product  *handlers.ProductHandler
}

func New(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	app := &Application{cfg: cfg}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.runMigrations(); err != nil {
		return nil, err
	}

	if err := app.initCache(); err != nil {
		return nil, err
	}

	app.initGateway()
	app.initRepositories()
	app.initServices()
	app.initHandlers()
	app.initRouter()

	app.server = &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        app.router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return app, nil
}

func (a *Application) Run() error {
	logger.Info("Server starting", map[string]interface{}{
		"port":        a.cfg.Port,
		"environment": a.cfg.Environment,
		"backend":     a.cfg.BackendBaseURL,
	})

	return a.server.ListenAndServe()
}

func (a *Application) Shutdown(ctx context.Context) error {
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			return err
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.Error(err, "Failed to close cache connection", nil)
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}

	return nil
}

func (a *Application) Router() *gin.Engine {
	return a.router
}

func (a *Application) initDatabase() error {
	logger.Info("Connecting to database", nil)

	db, err := gorm.Open(postgres.Open(a.cfg.DatabaseURL), &gorm.Config{
		Logger: logger.NewGormLogger(),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	a.db = db
	return nil
}

func (a *Application) runMigrations() error {
	if a.db == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	logger.Info("Running database migrations", nil)

	if err := a.db.AutoMigrate(&models.CheckoutSession{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (a *Application) initCache() error {
	if a.cfg.EnableRedis {
		c, err := cache.NewCache(a.cfg.RedisURL, true)
		if err == nil {
			a.cache = c
			return nil
		}
		logger.Warn("Redis unavailable, continuing without cache", map[string]interface{}{
			"addr":  a.cfg.RedisURL,
			"error": err.Error(),
		})
	}

	c, err := cache.NewCache("", false)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	a.cache = c
	return nil
}

func (a *Application) initGateway() {
	a.backend = gateway.NewClient(a.cfg.BackendBaseURL, a.cfg.BackendTimeout)
	a.backend.SetReturnURLs(a.cfg.CheckoutSuccessURL, a.cfg.CheckoutCancelURL)
}

func (a *Application) initRepositories() {
	a.repositories = repositoryContainer{
		CheckoutSession: repository.NewCheckoutSessionRepository(a.db),
	}
}

func (a *Application) initServices() {
	a.store = service.NewCartStore()
	a.store.Subscribe(func(userID uint, cart *models.Cart) {
		logger.Debug("Cart mirror updated", map[string]interface{}{
			"user_id": userID,
			"cart_id": cart.CartID,
			"lines":   len(cart.Items),
		})
	})

	pricing := service.NewPricingService(a.backend, a.cache)
	cartService := service.NewCartService(a.backend, a.store, pricing, a.cache)

	a.services = serviceContainer{
		Pricing:  pricing,
		Cart:     cartService,
		Checkout: service.NewCheckoutService(a.backend, cartService, a.store, a.repositories.CheckoutSession),
		Order:    service.NewOrderService(a.backend),
	}
}

func (a *Application) initHandlers() {
	a.handlers = handlerContainer{
		Cart:     handlers.NewCartHandler(a.services.Cart),
		Checkout: handlers.NewCheckoutHandler(a.services.Checkout),
		Order:    handlers.NewOrderHandler(a.services.Order),
		Product:  handlers.NewProductHandler(a.services.Pricing),
	}
}

func (a *Application) initRouter() {
	if a.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(logger.GinLogger())
	if a.cfg.EnableMetrics {
		router.Use(middleware.MetricsMiddleware())
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	if a.cfg.EnableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/api")
	api.Use(middleware.IdentityMiddleware(a.cfg.JWTSecret))

	cart := api.Group("/cart")
	{
		cart.GET("", a.handlers.Cart.Get)
		cart.POST("/items", a.handlers.Cart.AddItem)
		cart.PUT("/items", a.handlers.Cart.UpdateItem)
		cart.DELETE("/items/:productId", a.handlers.Cart.RemoveItem)
		cart.DELETE("/clear", a.handlers.Cart.Clear)
		cart.DELETE("", a.handlers.Cart.Delete)
		cart.POST("/refresh", a.handlers.Cart.Refresh)
	}

	checkout := api.Group("/checkout")
	checkout.Use(middleware.RequireAuth())
	{
		checkout.POST("", a.handlers.Checkout.Begin)
		checkout.GET("/return", a.handlers.Checkout.Return)
		checkout.GET("/sessions/:id", a.handlers.Checkout.Get)
	}

	orders := api.Group("/orders")
	orders.Use(middleware.RequireAuth())
	{
		orders.GET("", a.handlers.Order.List)
		orders.GET("/:id", a.handlers.Order.Get)
	}

	api.GET("/products/:id", a.handlers.Product.Get)

	a.router = router
}
