package main

import (
	"context"

	"karya/internal/blob"
	"karya/internal/bootstrap"
	"karya/internal/config"
	"karya/internal/function"
	"karya/internal/logger"
	"karya/internal/notify"
	"karya/internal/service"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	config.LoadDotenv()
	boot := config.FromEnv()
	logger.Init(boot.LogLevel, true)

	name := boot.Function
	required := config.FunctionKeys(name)
	if required == nil {
		logger.Fatal("unknown FUNCTION", "function", name, "known", function.Names)
	}
	cfg := config.Load(required...)

	ctx := context.Background()
	awsClients, err := bootstrap.LoadAWS(ctx, cfg.AWSEndpointURL)
	if err != nil {
		logger.Fatal("failed to load aws config", "error", err)
	}

	// Only the collaborators the function needs are built.
	deps := service.Deps{}
	if cfg.TableName != "" {
		deps.Store, _, err = bootstrap.NewStore(ctx, cfg, awsClients)
		if err != nil {
			logger.Fatal("failed to init task store", "error", err)
		}
	}
	if cfg.QueueURL != "" {
		deps.Queue, err = bootstrap.NewQueue(cfg, awsClients, nil)
		if err != nil {
			logger.Fatal("failed to init reminder queue", "error", err)
		}
	}
	if cfg.TopicARN != "" {
		deps.Notifier = notify.NewSNS(awsClients.SNS(), cfg.TopicARN)
	}
	if cfg.BucketName != "" {
		deps.Blobs = blob.NewS3(awsClients.S3(), cfg.BucketName)
	}

	tasks := service.NewTaskService(deps, service.Settings{LookaheadDays: cfg.LookaheadDays})
	handler, err := function.New(tasks).Handler(name)
	if err != nil {
		logger.Fatal("failed to select handler", "error", err)
	}

	logger.Info("function starting", "function", name)
	lambda.Start(handler)
}
