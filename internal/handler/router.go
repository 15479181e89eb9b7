package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flicky/ecom-cart-api/internal/middleware"
)

type RouterConfig struct {
	JWTSecret string
	Log       *slog.Logger
	Metrics   *middleware.Metrics
	Gatherer  prometheus.Gatherer

	Auth     *AuthHandler
	Products *ProductHandler
	Reviews  *ReviewHandler
	Users    *UserHandler
	Cart     *CartHandler
	Wishlist *WishlistHandler
	Health   *HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(cfg.Log))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Handler())
	}

	router.GET("/healthz", cfg.Health.Healthz)
	router.GET("/readyz", cfg.Health.Readyz)
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	authMW := middleware.AuthMiddleware(cfg.JWTSecret)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", cfg.Auth.Register)
		auth.POST("/login", cfg.Auth.Login)

		products := v1.Group("/products")
		products.GET("", cfg.Products.List)
		products.GET("/:id", cfg.Products.GetByID)
		products.GET("/:id/reviews", cfg.Reviews.List)
		products.POST("/:id/reviews", authMW, cfg.Reviews.Create)

		admin := products.Group("", authMW, middleware.AdminOnly())
		admin.POST("", cfg.Products.Create)
		admin.PUT("/:id", cfg.Products.Update)
		admin.DELETE("/:id", cfg.Products.Delete)
		admin.PATCH("/:id/variations/:variationId/stock", cfg.Products.SetVariationStock)

		users := v1.Group("/users", authMW, middleware.AdminOnly())
		users.GET("/admin", cfg.Users.List)

		cart := v1.Group("/cart", authMW)
		cart.GET("/me", cfg.Cart.GetCart)
		cart.POST("/add", cfg.Cart.AddItem)
		cart.PATCH("/increase", cfg.Cart.IncreaseQuantity)
		cart.PATCH("/decrease", cfg.Cart.DecreaseQuantity)
		cart.DELETE("/remove", cfg.Cart.RemoveItem)

		wishlist := v1.Group("/wishlist", authMW)
		wishlist.GET("/me", cfg.Wishlist.GetWishlist)
		wishlist.POST("/add", cfg.Wishlist.AddItem)
		wishlist.DELETE("/remove", cfg.Wishlist.RemoveItem)
	}

	return router
}
