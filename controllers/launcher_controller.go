package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"handover-launcher/internal/models"
	"handover-launcher/services"
)

type LauncherController struct {
	launcher *services.Launcher
}

/**
 * Create new launcher controller instance
 * @param {*services.Launcher} launcher - Launcher owning the server process
 * @returns {*LauncherController} New launcher controller instance
 */
func NewLauncherController(launcher *services.Launcher) *LauncherController {
	return &LauncherController{launcher: launcher}
}

/**
 * Register server control routes
 * @param {*gin.Engine} r - Gin router instance
 * @description
 * - /launcher/api/v1/server/{status,start,stop}
 * - /launcher/api/v1/logs
 * - /launcher/api/v1/config
 */
func (l *LauncherController) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/launcher/api/v1")
	api.GET("/server/status", l.Status)
	api.POST("/server/start", l.Start)
	api.POST("/server/stop", l.Stop)
	api.GET("/logs", l.Logs)
	api.GET("/config", l.GetConfig)
	api.PUT("/config/port", l.SetPort)
}

// Status returns the server process state
//
//	@Summary		Server status
//	@Tags			Server
//	@Produce		json
//	@Success		200	{object}	models.LauncherStatus
//	@Router			/launcher/api/v1/server/status [get]
func (l *LauncherController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, l.launcher.Status())
}

// Start launches the server
//
//	@Summary		Start server
//	@Description	Start the Node.js server, port 0 or an empty body uses the saved port
//	@Tags			Server
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.StartRequest		false	"Port"
//	@Success		200		{object}	models.LauncherStatus
//	@Failure		400		{object}	models.ErrorResponse	"Invalid port"
//	@Failure		409		{object}	models.ErrorResponse	"Already running"
//	@Failure		412		{object}	models.ErrorResponse	"Bundle incomplete or port in use"
//	@Failure		500		{object}	models.ErrorResponse	"Launch failed"
//	@Router			/launcher/api/v1/server/start [post]
func (l *LauncherController) Start(c *gin.Context) {
	var req models.StartRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, &models.ErrorResponse{Code: "request.invalid", Error: err.Error()})
			return
		}
	}
	port := req.Port
	if port == 0 {
		port = l.launcher.Store().LoadPort()
	}

	// the process outlives the request
	if _, err := l.launcher.Start(context.Background(), port); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l.launcher.Status())
}

// Stop stops the server
//
//	@Summary		Stop server
//	@Tags			Server
//	@Produce		json
//	@Success		200	{object}	models.LauncherStatus
//	@Failure		409	{object}	models.ErrorResponse	"Not running"
//	@Failure		500	{object}	models.ErrorResponse	"Signal delivery failed"
//	@Router			/launcher/api/v1/server/stop [post]
func (l *LauncherController) Stop(c *gin.Context) {
	if err := l.launcher.Stop(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l.launcher.Status())
}

// Logs returns recent server output
//
//	@Summary		Server output
//	@Tags			Server
//	@Produce		json
//	@Param			since	query		int	false	"Last sequence number already seen"
//	@Param			limit	query		int	false	"Maximum number of lines"
//	@Success		200		{array}		models.LogLine
//	@Router			/launcher/api/v1/logs [get]
func (l *LauncherController) Logs(c *gin.Context) {
	since, _ := strconv.ParseInt(c.DefaultQuery("since", "0"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))
	c.JSON(http.StatusOK, l.launcher.History().Lines(since, limit))
}

// GetConfig returns the persisted port configuration
//
//	@Summary		Port configuration
//	@Tags			Config
//	@Produce		json
//	@Success		200	{object}	models.PortConfig
//	@Router			/launcher/api/v1/config [get]
func (l *LauncherController) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, l.launcher.Store().Load())
}

// SetPort stores the port used by the next start
//
//	@Summary		Save port
//	@Tags			Config
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.StartRequest	true	"Port"
//	@Success		200		{object}	models.PortConfig
//	@Failure		400		{object}	models.ErrorResponse
//	@Router			/launcher/api/v1/config/port [put]
func (l *LauncherController) SetPort(c *gin.Context) {
	var req models.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, &models.ErrorResponse{Code: "request.invalid", Error: err.Error()})
		return
	}
	if err := l.launcher.Store().SavePort(req.Port); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l.launcher.Store().Load())
}
