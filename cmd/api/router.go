package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"qurux/internal/config"
	"qurux/internal/domain/booking"
	"qurux/internal/domain/feed"
	"qurux/internal/middleware"
	jwtsvc "qurux/internal/pkg/jwt"
	"qurux/internal/pkg/response"
)

type routerDeps struct {
	jwt      *jwtsvc.Service
	bookings *booking.Handler
	feed     *feed.Handler
	limiter  *middleware.RateLimiter
	db       *gorm.DB
}

func newRouter(cfg *config.Config, log zerolog.Logger, d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)
	if cfg.MetricsEnabled {
		r.Use(middleware.Metrics())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := d.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			response.Error(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "database unreachable")
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		// public
		d.bookings.RegisterPublicRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(d.jwt))
		d.bookings.RegisterRoutes(protected, d.limiter.Middleware())

		ws := v1.Group("")
		ws.Use(middleware.JWTAuthWithQuery(d.jwt))
		d.feed.RegisterRoutes(ws)
	}

	return r
}
