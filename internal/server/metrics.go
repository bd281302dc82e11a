package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MetricsHandler mounts h at /metrics on a bare gin engine.
func MetricsHandler(h http.Handler) http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	g.GET("/metrics", gin.WrapH(h))
	return g
}

// NewMetricsServer binds addr and serves h at /metrics in the background.
func NewMetricsServer(addr string, h http.Handler) (*http.Server, error) {
	return Serve(addr, MetricsHandler(h), nil)
}
