package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/pankaj085/lotuslynx/internal/config"
	"github.com/pankaj085/lotuslynx/internal/domain"
	"github.com/pankaj085/lotuslynx/internal/http/handler"
	"github.com/pankaj085/lotuslynx/internal/http/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, logger *zap.Logger, authHandler *handler.AuthHandler, catalogHandler *handler.CatalogHandler, authMiddleware *middleware.Auth, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(otelgin.Middleware(cfg.ServiceName))

	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/me", authMiddleware.RequireUser, authHandler.Me)
	}

	products := r.Group("/products")
	{
		products.GET("", catalogHandler.List)
		products.GET("/:id", catalogHandler.Get)
		products.POST("", authMiddleware.RequireUser, middleware.RequireRole(domain.RoleAdmin), catalogHandler.Create)
		products.PUT("/:id", authMiddleware.RequireUser, middleware.RequireRole(domain.RoleEditor), catalogHandler.Update)
		products.DELETE("/:id", authMiddleware.RequireUser, middleware.RequireRole(domain.RoleAdmin), catalogHandler.Delete)
		products.POST("/:id/image", authMiddleware.RequireUser, middleware.RequireRole(domain.RoleEditor), catalogHandler.UploadImage)
		products.POST("/:id/payment-intent", authMiddleware.RequireUser, catalogHandler.CreatePaymentIntent)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
