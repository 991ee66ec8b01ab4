// Package httpapi exposes the journal over HTTP: the JSON API under /api and
// the server-rendered board page.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/edgard/diary/internal/auth"
	"github.com/edgard/diary/internal/diary"
	"github.com/edgard/diary/internal/logger"
	"github.com/edgard/diary/internal/metrics"
	"github.com/edgard/diary/internal/render"
)

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the router. Metrics may be nil.
type Deps struct {
	Service       *diary.Service
	Admin         *auth.Admin
	Board         *render.Board
	Health        Pinger
	Metrics       *metrics.Metrics
	Location      *time.Location
	AllowedOrigin string
	Logger        *slog.Logger
}

// NewRouter wires every route.
func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}

	r := gin.New()
	r.Use(gin.Recovery(), logger.Middleware(deps.Logger.With("component", "http")))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
	}
	r.Use(corsMiddleware(deps.AllowedOrigin))

	h := newHandler(deps)

	r.GET("/", h.board)
	r.GET("/healthz", h.healthz)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		entries := api.Group("/entries")
		entries.GET("", h.listEntries)
		entries.POST("", h.createEntry)
		entries.DELETE("", h.requireAdmin, h.clearEntries)
		entries.GET("/:id", h.getEntry)
		entries.DELETE("/:id", h.deleteEntry)

		api.GET("/threads", h.listThreads)
		api.POST("/admin/token", h.issueAdminToken)
	}

	return r
}

func corsMiddleware(origin string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", logger.RequestIDHeader},
		ExposeHeaders: []string{logger.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if origin == "" || origin == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = []string{origin}
	}
	return cors.New(cfg)
}
