package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server   ServerConfig
	Player   PlayerConfig
	Feed     FeedConfig
	Worker   WorkerConfig
	Cache    CacheConfig
	Database DatabaseConfig
	MinIO    MinIOConfig
	RabbitMQ RabbitMQConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"API_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
	RateLimit       int           `envconfig:"API_RATE_LIMIT" default:"120"`
	RateWindow      time.Duration `envconfig:"API_RATE_WINDOW" default:"1m"`
}

type PlayerConfig struct {
	Port            int           `envconfig:"PLAYER_PORT" default:"8090"`
	SpoolDir        string        `envconfig:"PLAYER_SPOOL_DIR" default:"/tmp/reelstream"`
	FetchTimeout    time.Duration `envconfig:"PLAYER_FETCH_TIMEOUT" default:"2m"`
	PublishEvents   bool          `envconfig:"PLAYER_PUBLISH_EVENTS" default:"true"`
	ShutdownTimeout time.Duration `envconfig:"PLAYER_SHUTDOWN_TIMEOUT" default:"10s"`
}

type FeedConfig struct {
	SourceURL       string        `envconfig:"FEED_SOURCE_URL" default:"http://localhost:8080/v1/videos"`
	RequestTimeout  time.Duration `envconfig:"FEED_REQUEST_TIMEOUT" default:"15s"`
	RefreshInterval time.Duration `envconfig:"FEED_REFRESH_INTERVAL" default:"0s"`
}

type WorkerConfig struct {
	MaxRetries      int           `envconfig:"WORKER_MAX_RETRIES" default:"3"`
	MetricsPort     int           `envconfig:"WORKER_METRICS_PORT" default:"9091"`
	ShutdownTimeout time.Duration `envconfig:"WORKER_SHUTDOWN_TIMEOUT" default:"30s"`
}

type CacheConfig struct {
	ListTTL   time.Duration `envconfig:"CACHE_LIST_TTL" default:"30s"`
	URLExpiry time.Duration `envconfig:"CACHE_URL_EXPIRY" default:"1h"`
}

type DatabaseConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"reelstream"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:"reelstream"`
	DBName   string `envconfig:"POSTGRES_DB" default:"reelstream"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type MinIOConfig struct {
	Endpoint       string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	PublicEndpoint string `envconfig:"MINIO_PUBLIC_ENDPOINT"`
	AccessKey      string `envconfig:"MINIO_ACCESS_KEY" default:"minioadmin"`
	SecretKey      string `envconfig:"MINIO_SECRET_KEY" default:"minioadmin"`
	Bucket         string `envconfig:"MINIO_BUCKET" default:"videos"`
	UseSSL         bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	Enabled        bool   `envconfig:"MINIO_ENABLED" default:"true"`
}

type RabbitMQConfig struct {
	Host     string `envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port     int    `envconfig:"RABBITMQ_PORT" default:"5672"`
	User     string `envconfig:"RABBITMQ_USER" default:"reelstream"`
	Password string `envconfig:"RABBITMQ_PASSWORD" default:"reelstream"`
	VHost    string `envconfig:"RABBITMQ_VHOST" default:"/"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads configuration from the environment.
// A .env file in the working directory is applied first when present;
// variables already set in the environment take precedence over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
