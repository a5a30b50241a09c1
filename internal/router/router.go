package router

import (
	"golang.org/x/time/rate"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/notify-api/internal/handler"
	"github.com/jwalitptl/notify-api/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimit rate.Limit
	RateBurst int
	CORS      middleware.CORSConfig
}

func DefaultConfig() Config {
	return Config{
		RateLimit: 50,
		RateBurst: 100,
		CORS:      middleware.DefaultCORSConfig(),
	}
}

type Router struct {
	engine *gin.Engine
}

func New(cfg Config, base *handler.Handler, handlers ...Handler) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger())
	engine.Use(middleware.Recovery())
	engine.Use(middleware.CORS(cfg.CORS))
	engine.Use(middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  cfg.RateLimit,
		Burst: cfg.RateBurst,
	}).RateLimit())

	engine.GET("/health/live", base.LivenessCheck)
	engine.GET("/health/ready", base.ReadinessCheck)
	engine.GET("/metrics", base.MetricsHandler)

	api := engine.Group("/api/v1")
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}

	return &Router{engine: engine}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
