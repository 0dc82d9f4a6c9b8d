package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/renatond/dbi-replenishment/internal/api/handlers"
	"github.com/renatond/dbi-replenishment/internal/api/middleware"
	"github.com/renatond/dbi-replenishment/internal/cache"
	"github.com/renatond/dbi-replenishment/internal/repository/postgres"
	"github.com/renatond/dbi-replenishment/internal/service"
	"github.com/renatond/dbi-replenishment/internal/suppliers"
)

// Services carries the dependencies the router mounts.
type Services struct {
	RunService *service.RunService
	Runs       postgres.RunRepository
	Cache      cache.RunSummaryCache
	Suppliers  *suppliers.Store
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalized, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalized) > 0 {
			corsConfig.AllowOrigins = normalized
		}
	}
	router.Use(cors.New(corsConfig))

	apiGroup := router.Group("/api/v1")

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if services != nil {
		if services.RunService != nil {
			runHandler := handlers.NewRunHandler(services.RunService, services.Runs, services.Cache)
			runGroup := apiGroup.Group("/runs")
			{
				runGroup.POST("", runHandler.TriggerRun)
				runGroup.GET("", runHandler.ListRuns)
				runGroup.GET("/latest", runHandler.GetLatest)
				runGroup.GET("/:id", runHandler.GetRun)
			}
		}

		if services.Suppliers != nil {
			supplierHandler := handlers.NewSupplierHandler(services.Suppliers)
			supplierGroup := apiGroup.Group("/suppliers/excluded")
			{
				supplierGroup.GET("", supplierHandler.ListExcluded)
				supplierGroup.POST("", supplierHandler.AddExcluded)
				supplierGroup.PUT("", supplierHandler.ReplaceExcluded)
				supplierGroup.DELETE("/:name", supplierHandler.RemoveExcluded)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
