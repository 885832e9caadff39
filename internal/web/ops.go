package web

import (
	"net/http"

	"github.com/benjikir/Book-Alchemy/internal/events"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger checks database connectivity.
type Pinger interface {
	Ping() error
}

// NewOpsHandler serves /healthz and /metrics on the operations port.
func NewOpsHandler(pinger Pinger, emitter events.Emitter, gatherer prometheus.Gatherer, log *zap.Logger) http.Handler {
	engine := gin.New()
	engine.Use(Recovery(log))

	engine.GET("/healthz", func(c *gin.Context) {
		if err := pinger.Ping(); err != nil {
			log.Error("Database health check failed", zap.Error(err))
			c.String(http.StatusServiceUnavailable, "unhealthy: database connection failed")
			return
		}

		if !emitter.IsHealthy() {
			log.Error("RabbitMQ health check failed")
			c.String(http.StatusServiceUnavailable, "unhealthy: rabbitmq connection failed")
			return
		}

		c.String(http.StatusOK, "healthy")
	})

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return engine
}
