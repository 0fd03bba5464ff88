package api

import (
	"time"

	"mixologue-backend/config"
	_ "mixologue-backend/docs"
	"mixologue-backend/internal/api/v1/cocktail"
	"mixologue-backend/internal/api/v1/status"
	"mixologue-backend/internal/middleware"
	"mixologue-backend/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Deps is everything the HTTP layer needs. It is built once in main.
type Deps struct {
	Config    *config.Config
	Cocktails *cocktail.Handler
	Status    *status.Handler
	Limiter   middleware.Limiter
	Log       *zap.Logger
}

func NewRouter(deps Deps) *gin.Engine {
	cfg := deps.Config
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	utils.RegisterJSONTagNames()

	router := gin.New()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log.Named("http")))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Metrics())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           5 * time.Minute,
	}))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.Static(cfg.StaticURLPrefix, cfg.StaticDir)

	limit := middleware.RateLimit(deps.Limiter, log.Named("ratelimit"))

	v1 := router.Group("/api/v1")
	{
		status.RegisterRoutes(v1, deps.Status)
		cocktail.RegisterRoutes(v1, deps.Cocktails, limit)
	}

	return router
}
