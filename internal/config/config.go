package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"karya/internal/logger"

	"github.com/joho/godotenv"
)

// Environment keys.
const (
	KeyTableName       = "TABLE_NAME"
	KeyQueueURL        = "QUEUE_URL"
	KeyTopicARN        = "TOPIC_ARN"
	KeyBucketName      = "BUCKET_NAME"
	KeyDatabaseURL     = "DATABASE_URL"
	KeyRedisAddr       = "REDIS_ADDR"
	KeyJWTSecret       = "JWT_SECRET"
	KeyPolicyTableName = "POLICY_TABLE_NAME"
	KeyUserPoolID      = "USER_POOL_ID"
)

const (
	StoreDynamo   = "dynamodb"
	StorePostgres = "postgres"
	QueueSQS      = "sqs"
	QueueRedis    = "redis"
)

type Config struct {
	AppPort  string
	Function string

	StoreDriver  string
	TableName    string
	DueIndexName string
	DatabaseURL  string

	QueueDriver      string
	QueueURL         string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	ReminderQueueKey string

	TopicARN   string
	BucketName string

	PolicyTableName string
	UserPoolID      string
	AWSEndpointURL  string

	JWTSecret       string
	APIRateLimit    int
	APIRateWindow   time.Duration
	AllowedOrigin   string
	LookaheadDays   int
	ScanInterval    time.Duration
	ReminderWaitFor time.Duration

	LogLevel string
	LogJSON  bool
}

// LoadDotenv copies .env from the working directory (if any) into the
// environment. Variables already set win. Call it before FromEnv when the
// result decides which keys are required.
func LoadDotenv() {
	_ = godotenv.Load()
}

// Load reads .env (if any) and the environment. Every key in required must be
// set, otherwise the process exits: a cold start without its collaborators is
// not recoverable.
func Load(required ...string) *Config {
	LoadDotenv()

	cfg := FromEnv()
	if missing := cfg.Missing(required...); len(missing) > 0 {
		logger.Fatal("missing required configuration", "keys", strings.Join(missing, ","))
	}
	return cfg
}

// FromEnv builds a Config from the process environment without side effects.
func FromEnv() *Config {
	cfg := &Config{
		AppPort:          getEnv("APP_PORT", "8080"),
		Function:         os.Getenv("FUNCTION"),
		StoreDriver:      getEnv("STORE_DRIVER", StoreDynamo),
		TableName:        os.Getenv(KeyTableName),
		DueIndexName:     os.Getenv("DUE_INDEX_NAME"),
		DatabaseURL:      os.Getenv(KeyDatabaseURL),
		QueueDriver:      getEnv("QUEUE_DRIVER", QueueSQS),
		QueueURL:         firstEnv(KeyQueueURL, "SQS_QUEUE_URL"),
		RedisAddr:        os.Getenv(KeyRedisAddr),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          getInt("REDIS_DB", 0),
		ReminderQueueKey: getEnv("REMINDER_QUEUE_KEY", "karya:reminders"),
		TopicARN:         os.Getenv(KeyTopicARN),
		BucketName:       os.Getenv(KeyBucketName),
		PolicyTableName:  os.Getenv(KeyPolicyTableName),
		UserPoolID:       os.Getenv(KeyUserPoolID),
		AWSEndpointURL:   os.Getenv("AWS_ENDPOINT_URL"),
		JWTSecret:        os.Getenv(KeyJWTSecret),
		APIRateLimit:     getInt("API_RATE_LIMIT", 60),
		APIRateWindow:    time.Duration(getInt("API_RATE_WINDOW_SECONDS", 60)) * time.Second,
		AllowedOrigin:    os.Getenv("ALLOWED_ORIGIN"),
		LookaheadDays:    getInt("SCAN_LOOKAHEAD_DAYS", 5),
		ScanInterval:     time.Duration(getInt("SCAN_INTERVAL_SECONDS", 3600)) * time.Second,
		ReminderWaitFor:  time.Duration(getInt("REMINDER_WAIT_SECONDS", 20)) * time.Second,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogJSON:          os.Getenv("LOG_JSON") == "true",
	}
	return cfg
}

// Missing returns the required keys that have no value.
func (c *Config) Missing(keys ...string) []string {
	var missing []string
	for _, k := range keys {
		if c.value(k) == "" {
			missing = append(missing, k)
		}
	}
	return missing
}

func (c *Config) value(key string) string {
	switch key {
	case KeyTableName:
		return c.TableName
	case KeyQueueURL:
		return c.QueueURL
	case KeyTopicARN:
		return c.TopicARN
	case KeyBucketName:
		return c.BucketName
	case KeyDatabaseURL:
		return c.DatabaseURL
	case KeyRedisAddr:
		return c.RedisAddr
	case KeyJWTSecret:
		return c.JWTSecret
	case KeyPolicyTableName:
		return c.PolicyTableName
	case KeyUserPoolID:
		return c.UserPoolID
	default:
		return os.Getenv(key)
	}
}

// StoreKeys returns the keys the configured store driver needs.
func (c *Config) StoreKeys() []string {
	if c.StoreDriver == StorePostgres {
		return []string{KeyDatabaseURL}
	}
	return []string{KeyTableName}
}

// QueueKeys returns the keys the configured queue driver needs.
func (c *Config) QueueKeys() []string {
	if c.QueueDriver == QueueRedis {
		return []string{KeyRedisAddr}
	}
	return []string{KeyQueueURL}
}

// FunctionKeys lists what each Lambda function needs at cold start.
func FunctionKeys(function string) []string {
	switch function {
	case "create_task", "task_scanner":
		return []string{KeyTableName, KeyQueueURL}
	case "get_tasks", "update_task", "delete_task":
		return []string{KeyTableName}
	case "attach_file":
		return []string{KeyTableName, KeyBucketName}
	case "send_reminder":
		return []string{KeyTopicARN}
	default:
		return nil
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return defaultVal
}
