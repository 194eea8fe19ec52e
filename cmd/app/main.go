package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"karya/internal/blob"
	"karya/internal/bootstrap"
	"karya/internal/config"
	httpServer "karya/internal/http"
	"karya/internal/http/handlers"
	"karya/internal/logger"
	"karya/internal/notify"
	"karya/internal/service"
	"karya/internal/worker"
	"karya/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

var version = "dev"

type redisPinger struct{ rdb *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.rdb.Ping(ctx).Err() }

func main() {
	config.LoadDotenv()
	boot := config.FromEnv()
	logger.Init(boot.LogLevel, boot.LogJSON)

	required := append([]string{config.KeyJWTSecret, config.KeyBucketName}, boot.StoreKeys()...)
	cfg := config.Load(append(required, boot.QueueKeys()...)...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsClients, err := bootstrap.LoadAWS(ctx, cfg.AWSEndpointURL)
	if err != nil {
		logger.Fatal("failed to load aws config", "error", err)
	}

	store, closeStore, err := bootstrap.NewStore(ctx, cfg, awsClients)
	if err != nil {
		logger.Fatal("failed to init task store", "error", err)
	}
	defer closeStore()

	rdb := bootstrap.NewRedis(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	reminders, err := bootstrap.NewQueue(cfg, awsClients, rdb)
	if err != nil {
		logger.Fatal("failed to init reminder queue", "error", err)
	}

	hub := ws.NewHub()
	notifier := notify.Fanout{hub}
	if cfg.TopicARN != "" {
		notifier = append(notifier, notify.NewSNS(awsClients.SNS(), cfg.TopicARN))
	}

	tasks := service.NewTaskService(service.Deps{
		Store:    store,
		Queue:    reminders,
		Notifier: notifier,
		Blobs:    blob.NewS3(awsClients.S3(), cfg.BucketName),
	}, service.Settings{LookaheadDays: cfg.LookaheadDays})

	tokens, err := service.NewTokenManager(cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		logger.Fatal("failed to init tokens", "error", err)
	}

	checks := map[string]handlers.Pinger{"store": store}
	if rdb != nil {
		checks["redis"] = redisPinger{rdb}
	}

	r := gin.New()
	r.Use(gin.Recovery())

	// CORS for a frontend on a different origin
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (cfg.AllowedOrigin == "" || origin == cfg.AllowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-File-Name, Content-Transfer-Encoding")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	httpServer.RegisterRoutes(r, httpServer.Deps{
		Tasks:         tasks,
		Tokens:        tokens,
		Hub:           hub,
		Redis:         rdb,
		Checks:        checks,
		Version:       version,
		AllowedOrigin: cfg.AllowedOrigin,
		RateLimit:     cfg.APIRateLimit,
		RateWindow:    cfg.APIRateWindow,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		worker.RunScanner(ctx, tasks, cfg.ScanInterval)
	}()
	go func() {
		defer wg.Done()
		worker.NewReminderWorker(reminders, tasks, cfg.ReminderWaitFor).Run(ctx)
	}()

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "store", cfg.StoreDriver, "queue", cfg.QueueDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	wg.Wait()

	logger.Info("server exited")
}
