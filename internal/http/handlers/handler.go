package handlers

import (
	"net/http"

	"karya/internal/api"
	"karya/internal/http/middleware"
	"karya/internal/logger"
	"karya/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Tasks *service.TaskService
}

func NewHandler(tasks *service.TaskService) *Handler {
	return &Handler{Tasks: tasks}
}

// fail writes the {message, error} payload with the status of err.
func fail(c *gin.Context, message string, err error) {
	status := api.Status(err)
	log := logger.WithContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Error(message, "error", err)
	} else {
		log.Warn(message, "error", err)
	}
	c.JSON(status, api.NewErrorBody(message, err))
}

// ownerID reads the principal set by the JWT middleware.
func ownerID(c *gin.Context) (string, bool) {
	id := middleware.OwnerID(c)
	if id == "" {
		c.JSON(http.StatusUnauthorized, api.NewErrorBody(api.MsgUnauthorized, api.ErrUnauthorized))
		return "", false
	}
	return id, true
}
