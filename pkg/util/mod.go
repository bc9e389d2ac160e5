package util

import (
	"context"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var loadEnvOnce sync.Once

// LoadEnvFor returns an environment variable, reading .env on first use.
func LoadEnvFor(v string) string {
	loadEnvOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			LogInfo("No .env file found, using environment variables")
		}
	})
	return os.Getenv(v)
}

func envOr(key, fallback string) string {
	if v := LoadEnvFor(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := LoadEnvFor(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		LogWarning("invalid integer in environment, using default: " + key)
		return fallback
	}
	return n
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := LoadEnvFor(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		LogWarning("invalid duration in environment, using default: " + key)
		return fallback
	}
	return d
}

type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadFolder string
}

type SMTPConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	FromEmail string
	FromName  string
}

type SMSConfig struct {
	APIURL string
	APIKey string
}

// Config is the process configuration, read once at startup.
type Config struct {
	Port               string
	GinMode            string
	DatabaseURL        string
	DatabaseName       string
	RedisURL           string
	Secret             string
	AccessTokenTTL     time.Duration
	AdminTokenTTL      time.Duration
	AppBaseURL         string
	AdditionalInfo     []string
	WorkerPoolSize     int
	SnowflakeNode      int64
	RateLimitPerSecond int
	Log                LogConfig
	Cloudinary         CloudinaryConfig
	SMTP               SMTPConfig
	SMS                SMSConfig
}

// LoadConfig reads Config from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:               envOr("PORT", "8080"),
		GinMode:            envOr("GIN_MODE", "debug"),
		DatabaseURL:        LoadEnvFor("DATABASE_URL"),
		DatabaseName:       envOr("DB_NAME", "applicant"),
		RedisURL:           LoadEnvFor("REDIS_URL"),
		Secret:             LoadEnvFor("SECRET"),
		AccessTokenTTL:     envDurationOr("ACCESS_TOKEN_TTL", 7*24*time.Hour),
		AdminTokenTTL:      envDurationOr("ADMIN_TOKEN_TTL", 24*time.Hour),
		AppBaseURL:         envOr("APP_BASE_URL", "http://localhost:3000"),
		WorkerPoolSize:     envIntOr("WORKER_POOL_SIZE", 4),
		SnowflakeNode:      int64(envIntOr("SNOWFLAKE_NODE", 1)),
		RateLimitPerSecond: envIntOr("RATE_LIMIT_PER_SECOND", 5),
		Log: LogConfig{
			Level: envOr("LOG_LEVEL", "info"),
			Dev:   LoadEnvFor("LOG_DEV") == "1",
			Dir:   LoadEnvFor("LOG_DIR"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName:    LoadEnvFor("CLOUDINARY_CLOUDNAME"),
			APIKey:       LoadEnvFor("CLOUDINARY_API_KEY"),
			APISecret:    LoadEnvFor("CLOUDINARY_API_SECRET"),
			UploadFolder: envOr("CLOUDINARY_UPLOAD_FOLDER", "applicants"),
		},
		SMTP: SMTPConfig{
			Host:      LoadEnvFor("SMTP_HOST"),
			Port:      envIntOr("SMTP_PORT", 587),
			User:      LoadEnvFor("SMTP_USER"),
			Password:  LoadEnvFor("SMTP_PASSWORD"),
			FromEmail: envOr("SMTP_FROM_EMAIL", "no-reply@localhost"),
			FromName:  envOr("SMTP_FROM_NAME", "Recruitment Team"),
		},
		SMS: SMSConfig{
			APIURL: envOr("SMS_API_URL", "https://api.sms.net.bd/sendsms"),
			APIKey: LoadEnvFor("SMS_API_KEY"),
		},
	}

	if raw := LoadEnvFor("ADDITIONAL_INFO_REQUIRED"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				cfg.AdditionalInfo = append(cfg.AdditionalInfo, part)
			}
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.Secret == "" {
		return nil, errors.New("SECRET is required")
	}
	return cfg, nil
}

// ConnectDB opens and pings a MongoDB client.
func ConnectDB(ctx context.Context, uri string) (*mongo.Client, error) {
	LogInfo("starting MongoDB connection..")
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}

	if err = client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "ping mongo")
	}

	LogInfo("MongoDB connection successful")
	return client, nil
}

// ConnectRedis opens a Redis client from a redis:// URL.
func ConnectRedis(ctx context.Context, redisUrl string) (*redis.Client, error) {
	LogInfo("starting redis connection..")
	opts, err := redis.ParseURL(redisUrl)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "ping redis")
	}

	LogInfo("redis connection successful..")
	return client, nil
}
