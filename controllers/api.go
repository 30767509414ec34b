package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"handover-launcher/internal/config"
	"handover-launcher/services"
)

type APIController struct {
	launcher *services.Launcher
	version  string
}

/**
 * Create new API controller instance
 * @param {*services.Launcher} launcher - Launcher answering health queries
 * @param {string} version - Launcher version reported by /healthz
 * @returns {*APIController} New API controller instance
 */
func NewAPIController(launcher *services.Launcher, version string) *APIController {
	return &APIController{
		launcher: launcher,
		version:  version,
	}
}

func (a *APIController) RegisterRoutes(r *gin.Engine) {
	r.POST("/launcher/api/v1/reload", a.ReloadConfig)
	r.GET("/healthz", a.Healthz)
}

// @Summary 重新加载配置
// @Description 重新加载 launcher.yaml，新的超时设置在下一次启动时生效
// @Tags Config
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /launcher/api/v1/reload [post]
func (a *APIController) ReloadConfig(c *gin.Context) {
	if err := config.ReloadConfig(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "config.reload_failed",
			"error": "Failed to reload configuration: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Configuration reloaded successfully",
	})
}

// @Summary 业务就绪探针
// @Description 返回控制服务版本、启动时间、健康状态和关键指标
// @Tags System
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /healthz [get]
func (a *APIController) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, a.launcher.Healthz(a.version))
}
