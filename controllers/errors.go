package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"handover-launcher/internal/models"
	"handover-launcher/internal/proc"
	"handover-launcher/internal/utils"
	"handover-launcher/services"
)

// respondError maps launcher errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "launcher.error"

	var pre *services.PreconditionError
	var startErr *proc.StartError
	var stopErr *proc.StopError
	switch {
	case errors.Is(err, proc.ErrAlreadyRunning):
		status, code = http.StatusConflict, "server.already_running"
	case errors.Is(err, proc.ErrNotRunning):
		status, code = http.StatusConflict, "server.not_running"
	case errors.Is(err, utils.ErrInvalidPort):
		status, code = http.StatusBadRequest, "port.invalid"
	case errors.As(err, &pre):
		status, code = http.StatusPreconditionFailed, "precondition."+pre.Kind.String()
	case errors.Is(err, services.ErrUnsupportedPlatform):
		status, code = http.StatusNotImplemented, "platform.unsupported"
	case errors.As(err, &startErr):
		code = "server.launch_failed"
	case errors.As(err, &stopErr):
		code = "server.stop_failed"
	}
	c.JSON(status, &models.ErrorResponse{Code: code, Error: err.Error()})
}
