// Package bootstrap builds the collaborators described by a Config. Clients
// are created once per process and handed down; nothing here is global.
package bootstrap

import (
	"context"
	"fmt"

	"karya/internal/config"
	"karya/internal/db"
	"karya/internal/queue"
	"karya/internal/service"
	"karya/internal/store/dynamo"
	"karya/internal/store/postgres"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/redis/go-redis/v9"
)

// AWS holds the shared SDK configuration. A non-empty endpoint points every
// client at a local emulator.
type AWS struct {
	cfg      aws.Config
	endpoint string
}

func LoadAWS(ctx context.Context, endpoint string) (*AWS, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &AWS{cfg: cfg, endpoint: endpoint}, nil
}

func (a *AWS) base() *string {
	if a.endpoint == "" {
		return nil
	}
	return aws.String(a.endpoint)
}

func (a *AWS) DynamoDB() *dynamodb.Client {
	return dynamodb.NewFromConfig(a.cfg, func(o *dynamodb.Options) { o.BaseEndpoint = a.base() })
}

func (a *AWS) SQS() *sqs.Client {
	return sqs.NewFromConfig(a.cfg, func(o *sqs.Options) { o.BaseEndpoint = a.base() })
}

func (a *AWS) SNS() *sns.Client {
	return sns.NewFromConfig(a.cfg, func(o *sns.Options) { o.BaseEndpoint = a.base() })
}

func (a *AWS) S3() *s3.Client {
	return s3.NewFromConfig(a.cfg, func(o *s3.Options) {
		o.BaseEndpoint = a.base()
		o.UsePathStyle = a.endpoint != ""
	})
}

func (a *AWS) Cognito() *cognitoidentityprovider.Client {
	return cognitoidentityprovider.NewFromConfig(a.cfg, func(o *cognitoidentityprovider.Options) { o.BaseEndpoint = a.base() })
}

// Store is a task store that can report readiness.
type Store interface {
	service.TaskStore
	Ping(ctx context.Context) error
}

// NewStore returns the task store selected by STORE_DRIVER. The returned
// func releases its resources.
func NewStore(ctx context.Context, cfg *config.Config, a *AWS) (Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool := db.Connect(ctx, cfg.DatabaseURL)
		return postgres.NewTaskStore(pool), pool.Close, nil
	case config.StoreDynamo, "":
		return dynamo.NewTaskStore(a.DynamoDB(), cfg.TableName, cfg.DueIndexName), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// Queue is both ends of the reminder queue.
type Queue interface {
	service.Queue
	queue.Consumer
}

// NewQueue returns the reminder queue selected by QUEUE_DRIVER. rdb is only
// used by the redis driver.
func NewQueue(cfg *config.Config, a *AWS, rdb *redis.Client) (Queue, error) {
	switch cfg.QueueDriver {
	case config.QueueRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis queue requires %s", config.KeyRedisAddr)
		}
		return queue.NewRedis(rdb, cfg.ReminderQueueKey), nil
	case config.QueueSQS, "":
		return queue.NewSQS(a.SQS(), cfg.QueueURL), nil
	default:
		return nil, fmt.Errorf("unknown QUEUE_DRIVER %q", cfg.QueueDriver)
	}
}

// NewRedis returns a client when REDIS_ADDR is set, nil otherwise.
func NewRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
