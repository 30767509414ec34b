package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"handover-launcher/internal/config"
	"handover-launcher/internal/middleware"
	"handover-launcher/services"
)

/**
 * Build the control API router
 * @param {*services.Launcher} launcher - Launcher serving the server routes
 * @param {*services.AutoStart} autostart - Scheduled task integration
 * @param {*services.Firewall} firewall - Firewall integration
 * @param {config.MetricsConfig} metrics - Whether and where to expose prometheus metrics
 * @param {string} version - Reported by /healthz
 * @returns {*gin.Engine} Router with every controller registered
 */
func NewRouter(launcher *services.Launcher, autostart *services.AutoStart, firewall *services.Firewall,
	metrics config.MetricsConfig, version string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.MetricsMiddleware(launcher.Metrics()))

	NewAPIController(launcher, version).RegisterRoutes(r)
	NewLauncherController(launcher).RegisterRoutes(r)
	NewSystemController(launcher, autostart, firewall).RegisterRoutes(r)

	if metrics.Enabled {
		path := metrics.Path
		if path == "" {
			path = "/metrics"
		}
		handler := promhttp.HandlerFor(launcher.Metrics().Registry(), promhttp.HandlerOpts{})
		r.GET(path, gin.WrapH(handler))
	}
	return r
}
