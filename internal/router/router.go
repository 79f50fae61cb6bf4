package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hiremind/hiremind-backend/internal/config"
	"github.com/hiremind/hiremind-backend/internal/handler"
	"github.com/hiremind/hiremind-backend/internal/middleware"
	"github.com/hiremind/hiremind-backend/internal/response"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Quiz       *handler.QuizHandler
	Assessment *handler.AssessmentHandler
	WS         *handler.WSHandler
}

// Authenticator validates tokens and the single-device session behind them.
type Authenticator interface {
	middleware.TokenValidator
	middleware.SessionValidator
}

// HealthChecker reports "ok" or an error text per backing store.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	auth Authenticator,
	health HealthChecker,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Sockets and the scrape endpoint are never compressed.
	brotliConfig := middleware.DefaultBrotliConfig
	brotliConfig.SkipPrefixes = []string{"/ws/", "/metrics"}
	router.Use(middleware.BrotliWithConfig(brotliConfig))

	router.GET("/health", func(c *gin.Context) {
		status := health.Health(c.Request.Context())
		code := http.StatusOK
		for _, s := range status {
			if s != "ok" {
				code = http.StatusServiceUnavailable
				break
			}
		}
		response.Success(c, code, status)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	// Ten login attempts per minute per IP.
	loginLimiter := middleware.NewRateLimiter(10, 6*time.Second)
	authGroup := router.Group("/api/v1/auth")
	{
		authGroup.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)

		authenticated := authGroup.Group("")
		authenticated.Use(middleware.RequireUserJWT(auth), middleware.CheckSingleDeviceSession(auth))
		authenticated.POST("/logout", handlers.Auth.Logout)
		authenticated.GET("/me", handlers.Auth.Me)
	}

	// ─── 2. User API (JWT + Single Device) ─────────────────────────────
	api := router.Group("/api/v1")
	api.Use(
		middleware.RequireUserJWT(auth),
		middleware.CheckSingleDeviceSession(auth),
	)
	{
		generateLimiter := middleware.NewRateLimiter(1, cfg.GenerateInterval)

		quizzes := api.Group("/quizzes")
		quizzes.Use(middleware.NoStore())
		{
			quizzes.POST("", generateLimiter.Middleware(), handlers.Quiz.Generate)
			quizzes.GET("/:quiz_id", handlers.Quiz.Get)
		}

		api.GET("/security/shortcuts", middleware.CacheControl(3600), handlers.Quiz.Shortcuts)
		api.GET("/assessments", middleware.NoStore(), handlers.Assessment.List)
	}

	// ─── 3. WebSocket Group (WS Auth) ──────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(auth), middleware.CheckSingleDeviceSession(auth))
	{
		ws.GET("/quizzes/:quiz_id/stream", handlers.WS.QuizStream)
	}

	return router
}
