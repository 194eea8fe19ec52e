package http

import (
	"time"

	"karya/internal/http/handlers"
	"karya/internal/http/middleware"
	"karya/internal/service"
	"karya/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Deps is everything the routes need.
type Deps struct {
	Tasks         *service.TaskService
	Tokens        *service.TokenManager
	Hub           *ws.Hub
	Redis         *redis.Client
	Checks        map[string]handlers.Pinger
	Version       string
	AllowedOrigin string
	RateLimit     int
	RateWindow    time.Duration
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	h := handlers.NewHandler(d.Tasks)
	healthHandler := handlers.NewHealthHandler(d.Version, d.Checks)

	r.Use(middleware.RequestContext())

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// JWT runs first so the limiter keys on the owner
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWT(d.Tokens), middleware.RateLimit(d.Redis, d.RateLimit, d.RateWindow))
	{
		v1.POST("/tasks", h.CreateTask)
		v1.GET("/tasks", h.ListTasks)
		v1.PUT("/tasks/:taskId", h.UpdateTask)
		v1.DELETE("/tasks/:taskId", h.DeleteTask)
		v1.POST("/tasks/:taskId/attachment", h.AttachFile)
	}

	if d.Hub != nil {
		r.GET("/ws", ws.HandleWS(d.Hub, d.Tokens, d.AllowedOrigin))
	}
}
