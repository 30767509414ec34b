package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"handover-launcher/internal/models"
	"handover-launcher/services"
)

type SystemController struct {
	autostart *services.AutoStart
	firewall  *services.Firewall
	launcher  *services.Launcher
}

// AutoStartRequest is the body of POST /launcher/api/v1/system/autostart
type AutoStartRequest struct {
	Mode         models.AutoStartMode `json:"mode"`
	DelaySeconds int                  `json:"delaySeconds"`
}

// FirewallRequest is the body of POST /launcher/api/v1/system/firewall
type FirewallRequest struct {
	Port int `json:"port"`
}

func NewSystemController(launcher *services.Launcher, autostart *services.AutoStart, firewall *services.Firewall) *SystemController {
	return &SystemController{autostart: autostart, firewall: firewall, launcher: launcher}
}

func (s *SystemController) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/launcher/api/v1/system")
	api.GET("/autostart", s.AutoStartStatus)
	api.POST("/autostart", s.EnableAutoStart)
	api.DELETE("/autostart", s.DisableAutoStart)
	api.POST("/firewall", s.OpenFirewall)
	api.DELETE("/firewall", s.CloseFirewall)
	api.GET("/ip", s.LANAddress)
}

// AutoStartStatus reports whether the logon task exists
//
//	@Summary		Auto-start status
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Failure		501	{object}	models.ErrorResponse	"Not Windows"
//	@Router			/launcher/api/v1/system/autostart [get]
func (s *SystemController) AutoStartStatus(c *gin.Context) {
	registered, err := s.autostart.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	cfg := s.launcher.Store().Load()
	c.JSON(http.StatusOK, gin.H{
		"registered":   registered,
		"enabled":      cfg.AutoStartEnabled,
		"mode":         cfg.AutoStartMode,
		"delaySeconds": cfg.AutoStartDelaySeconds,
	})
}

// EnableAutoStart registers the logon task
//
//	@Summary		Enable auto-start
//	@Tags			System
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AutoStartRequest	true	"Mode and delay"
//	@Success		200		{object}	models.ActionResult
//	@Failure		501		{object}	models.ErrorResponse	"Not Windows"
//	@Router			/launcher/api/v1/system/autostart [post]
func (s *SystemController) EnableAutoStart(c *gin.Context) {
	var req AutoStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, &models.ErrorResponse{Code: "request.invalid", Error: err.Error()})
		return
	}
	if req.Mode == "" {
		req.Mode = models.AutoStartGUI
	}
	if err := s.autostart.Enable(c.Request.Context(), req.Mode, req.DelaySeconds); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, &models.ActionResult{Success: true, Message: "Auto-start enabled"})
}

// DisableAutoStart removes the logon task
//
//	@Summary		Disable auto-start
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	models.ActionResult
//	@Router			/launcher/api/v1/system/autostart [delete]
func (s *SystemController) DisableAutoStart(c *gin.Context) {
	if err := s.autostart.Disable(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, &models.ActionResult{Success: true, Message: "Auto-start disabled"})
}

// OpenFirewall creates the inbound rule
//
//	@Summary		Open firewall port
//	@Tags			System
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FirewallRequest	false	"Port, saved port when omitted"
//	@Success		200		{object}	models.ActionResult
//	@Router			/launcher/api/v1/system/firewall [post]
func (s *SystemController) OpenFirewall(c *gin.Context) {
	var req FirewallRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, &models.ErrorResponse{Code: "request.invalid", Error: err.Error()})
			return
		}
	}
	if req.Port == 0 {
		req.Port = s.launcher.Store().LoadPort()
	}
	if err := s.firewall.Open(c.Request.Context(), req.Port); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, &models.ActionResult{Success: true, Message: "Firewall rule created: " + services.RuleName(req.Port)})
}

// CloseFirewall removes the inbound rule
//
//	@Summary		Close firewall port
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	models.ActionResult
//	@Router			/launcher/api/v1/system/firewall [delete]
func (s *SystemController) CloseFirewall(c *gin.Context) {
	if err := s.firewall.Close(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, &models.ActionResult{Success: true, Message: "Firewall rule removed"})
}

// LANAddress returns the address other machines use
//
//	@Summary		LAN address
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Router			/launcher/api/v1/system/ip [get]
func (s *SystemController) LANAddress(c *gin.Context) {
	ip, err := services.LANIP()
	if err != nil {
		respondError(c, err)
		return
	}
	port := s.launcher.Store().LoadPort()
	if d := s.launcher.Supervisor().Detail(); d.State.Active() {
		port = d.Port
	}
	url, _ := services.LANURL(port)
	c.JSON(http.StatusOK, gin.H{"ip": ip, "url": url})
}
