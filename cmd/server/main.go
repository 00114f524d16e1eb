package main

import (
	"context"
	"fmt"
	"os"

	rediscache "github.com/fieldlens/fieldlens-backend/internal/clients/redis"
	"github.com/fieldlens/fieldlens-backend/internal/db"
	"github.com/fieldlens/fieldlens-backend/internal/handlers"
	"github.com/fieldlens/fieldlens-backend/internal/logger"
	"github.com/fieldlens/fieldlens-backend/internal/middleware"
	"github.com/fieldlens/fieldlens-backend/internal/observability"
	"github.com/fieldlens/fieldlens-backend/internal/repos"
	"github.com/fieldlens/fieldlens-backend/internal/server"
	"github.com/fieldlens/fieldlens-backend/internal/services"
	"github.com/fieldlens/fieldlens-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Tracing
	shutdownOtel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "fieldlens-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	defer func() { _ = shutdownOtel(ctx) }()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	facetKindRepo := repos.NewFacetKindRepo(thePG, log)
	globalFacetRepo := repos.NewGlobalFacetRepo(thePG, log)
	accountFacetRepo := repos.NewAccountFacetRepo(thePG, log)
	personFacetRepo := repos.NewPersonFacetRepo(thePG, log)
	personScaleRepo := repos.NewPersonScaleRepo(thePG, log)

	// Taxonomy seed
	if err := postgresService.SeedTaxonomy(ctx, facetKindRepo, globalFacetRepo); err != nil {
		log.Warn("Taxonomy seeding failed", "error", err)
	}

	// Catalog cache (optional; disabled without REDIS_ADDR)
	var catalogCache rediscache.CatalogCache
	if os.Getenv("REDIS_ADDR") != "" {
		catalogCache, err = rediscache.NewCatalogCache(log)
		if err != nil {
			log.Warn("Catalog cache init failed, serving uncached", "error", err)
			catalogCache = nil
		} else {
			defer func() { _ = catalogCache.Close() }()
		}
	}

	// Services
	log.Info("Setting up Services from main...")
	catalogService := services.NewFacetCatalogService(facetKindRepo, globalFacetRepo, accountFacetRepo, log)
	var invalidator services.CatalogInvalidator
	if catalogCache != nil {
		invalidator = catalogCache
	}
	observationService := services.NewFacetObservationService(
		facetKindRepo,
		globalFacetRepo,
		accountFacetRepo,
		personFacetRepo,
		personScaleRepo,
		invalidator,
		log,
	)

	// HTTP
	facetHandler := handlers.NewFacetHandler(catalogService, observationService, catalogCache, log)
	accountMiddleware := middleware.NewAccountMiddleware(log)
	router := server.NewRouter(server.RouterConfig{
		FacetHandler:      facetHandler,
		AccountMiddleware: accountMiddleware,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
