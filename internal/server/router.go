package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/fieldlens/fieldlens-backend/internal/handlers"
	"github.com/fieldlens/fieldlens-backend/internal/middleware"
)

type RouterConfig struct {
	FacetHandler      *handlers.FacetHandler
	AccountMiddleware *middleware.AccountMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Account-ID"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// ===============
	// || Scoped    ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AccountMiddleware.RequireAccount())
	{
		api.GET("/facets/catalog", cfg.FacetHandler.GetCatalog)
		api.POST("/facets/observations", cfg.FacetHandler.PostObservations)
	}

	return router
}
