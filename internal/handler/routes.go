// Package handler contains the HTTP handlers and route table.
package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jph-proxy-go/internal/config"
	"jph-proxy-go/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(e *echo.Echo, proxy *ProxyHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/proxy/status", health.Status)

	e.GET("/", proxy.Root)

	api := e.Group("/api")
	api.GET("/comments", proxy.Comments)
	api.GET("/users/:id", proxy.User)
	api.GET("/users", proxy.Users)
	api.POST("/posts", proxy.CreatePost)
	api.GET("/todos", proxy.Todos)
	api.POST("/todos", proxy.CreateTodo)
	api.GET("/fun-fact", proxy.FunFact)
}

// RegisterMetrics exposes the Prometheus registry when metrics are enabled.
func RegisterMetrics(e *echo.Echo, cfg *config.Config, m *metrics.Metrics) {
	if !cfg.Metrics.Enabled {
		return
	}
	e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
}
