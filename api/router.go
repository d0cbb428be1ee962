package api

import (
	"context"
	_ "embed"
	"log/slog"
	"net/http"
	"time"

	"github.com/FikranSE/bookingapp/internal/clock"
	"github.com/FikranSE/bookingapp/internal/domain"
	"github.com/FikranSE/bookingapp/internal/service/account"
	"github.com/FikranSE/bookingapp/internal/service/booking"
	"github.com/FikranSE/bookingapp/internal/service/resources"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed openapi.yaml
var openAPIDoc []byte

type RouterDeps struct {
	Bookings  booking.BookingUseCase
	Resources resources.ResourceUseCase
	Accounts  account.AccountUseCase
	Tokens    TokenParser
	Clock     clock.Clock
	Log       *slog.Logger

	// Health reports readiness of backing stores. Nil means always healthy.
	Health func(ctx context.Context) error
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(d.Log), Recovery(d.Log))

	r.GET("/health", healthHandler(d.Health))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/openapi.yaml", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml", openAPIDoc)
	})
	r.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/openapi.yaml"))))

	public := r.Group("/api")
	accounts := NewAccountHandler(d.Accounts, d.Log)
	accounts.RegisterPublic(public)

	private := r.Group("/api", RequireAuth(d.Tokens))
	accounts.RegisterPrivate(private)
	NewResourceHandler(d.Resources, d.Log).Register(private)
	NewBookingHandler(d.Bookings, domain.ResourceRoom, d.Log).Register(private.Group("/room-bookings"))
	NewBookingHandler(d.Bookings, domain.ResourceTransport, d.Log).Register(private.Group("/transport-bookings"))
	NewExportHandler(d.Bookings, d.Clock, d.Log).Register(private)

	return r
}

func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
