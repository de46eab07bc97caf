package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/staywizard/internal/config"
	"github.com/iliyamo/staywizard/internal/handler"
	"github.com/iliyamo/staywizard/internal/middleware"
	"github.com/iliyamo/staywizard/internal/model"
	"github.com/iliyamo/staywizard/internal/service"
)

// Deps are the collaborators the routes are built from.  RDB may be nil,
// which disables caching and rate limiting.
type Deps struct {
	Flows           *handler.FlowHandler
	JWTSecret       string
	RDB             *redis.Client
	Cache           config.CacheConfig
	RateLimit       config.RateLimitConfig
	SubmitRateLimit config.RateLimitConfig
	Log             *zap.Logger
}

// RegisterRoutes registers every endpoint.  All /v1 routes resolve the
// caller's authentication without requiring it; only my-submissions
// requires a valid token.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	g := e.Group("/v1",
		middleware.Authenticate(d.JWTSecret),
		middleware.NewTokenBucket(d.RateLimit, d.RDB, d.Log),
	)
	h := d.Flows

	// ---- Vocabularies ----
	g.GET("/vocabularies", h.Vocabularies, middleware.NewRedisCache(d.Cache, d.RDB, "vocab"))

	// ---- Flows ----
	g.POST("/flows", h.CreateFlow)
	g.POST("/flows/:id/mount", h.Mount)
	g.DELETE("/flows/:id", h.Reset)

	// ---- Draft ----
	g.GET("/flows/:id/draft", h.GetDraft)
	g.PATCH("/flows/:id/draft", h.PatchDraft)
	g.PUT("/flows/:id/media/cover", h.UploadCover)

	// ---- Wizard ----
	g.GET("/flows/:id/wizard", h.GetWizard)
	g.POST("/flows/:id/wizard/advance", h.Advance)
	g.POST("/flows/:id/wizard/retreat", h.Retreat)
	g.POST("/flows/:id/wizard/jump", h.Jump)

	// ---- Submit ----
	g.POST("/flows/:id/submit", h.Submit, middleware.NewTokenBucket(d.SubmitRateLimit, d.RDB, d.Log))

	// ---- Receipts ----
	g.GET("/my-submissions", h.MySubmissions,
		middleware.JWTAuth(d.JWTSecret),
		middleware.NewRedisCacheBy(d.Cache, d.RDB, func(c echo.Context) string {
			return service.ReceiptsNamespace(model.Kind(c.QueryParam("kind")))
		}),
	)
}
