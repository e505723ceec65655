package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/wb-go/wbf/retry"
)

const defaultConfigPath = "config/config.yaml"

type Config struct {
	Env     string  `yaml:"env" env:"ENV" env-default:"local"`
	Server  Server  `yaml:"server"`
	DB      DB      `yaml:"db"`
	Kafka   Kafka   `yaml:"kafka"`
	Worker  Worker  `yaml:"worker"`
	Storage Storage `yaml:"storage"`
	Images  Images  `yaml:"images"`
	Retry   Retry   `yaml:"retry"`
}

type Server struct {
	Addr            string        `yaml:"addr" env:"SERVER_ADDR" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

type DB struct {
	Host            string        `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            string        `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string        `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password        string        `yaml:"password" env:"DB_PASSWORD"`
	Name            string        `yaml:"name" env:"DB_NAME" env-default:"course_media"`
	SSLMode         string        `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
}

type Kafka struct {
	Brokers     []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092"`
	EventsTopic string   `yaml:"events_topic" env:"KAFKA_EVENTS_TOPIC" env-default:"course-media.events"`
	GroupID     string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"course-media-cleanup"`
}

type Worker struct {
	Concurrency int `yaml:"concurrency" env:"WORKER_CONCURRENCY" env-default:"4" validate:"min=1"`
	MaxRequeues int `yaml:"max_requeues" env:"WORKER_MAX_REQUEUES" env-default:"5" validate:"min=0"`
}

type Storage struct {
	Provider string   `yaml:"provider" env:"STORAGE_PROVIDER" env-default:"minio" validate:"oneof=firebase supabase minio"`
	Firebase Firebase `yaml:"firebase"`
	Supabase Supabase `yaml:"supabase"`
	MinIO    MinIO    `yaml:"minio"`
}

type Firebase struct {
	ProjectID       string `yaml:"project_id" env:"FIREBASE_PROJECT_ID"`
	Bucket          string `yaml:"bucket" env:"FIREBASE_STORAGE_BUCKET"`
	CredentialsFile string `yaml:"credentials_file" env:"GOOGLE_APPLICATION_CREDENTIALS"`
}

type Supabase struct {
	URL        string `yaml:"url" env:"SUPABASE_URL"`
	ServiceKey string `yaml:"service_key" env:"SUPABASE_SERVICE_KEY"`
	Bucket     string `yaml:"bucket" env:"SUPABASE_STORAGE_BUCKET" env-default:"course-media"`
}

type MinIO struct {
	Endpoint   string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKey  string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey  string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	Bucket     string `yaml:"bucket" env:"MINIO_BUCKET" env-default:"course-media"`
	UseSSL     bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
	PublicBase string `yaml:"public_base" env:"MINIO_PUBLIC_BASE"`
}

type Images struct {
	MaxUploadSize int64 `yaml:"max_upload_size" env:"IMAGES_MAX_UPLOAD_SIZE" env-default:"10485760" validate:"min=1"`
	MaxWidth      int   `yaml:"max_width" env:"IMAGES_MAX_WIDTH" env-default:"1920" validate:"min=1"`
	MaxHeight     int   `yaml:"max_height" env:"IMAGES_MAX_HEIGHT" env-default:"1080" validate:"min=1"`
	ThumbnailSize int   `yaml:"thumbnail_size" env:"IMAGES_THUMBNAIL_SIZE" env-default:"300" validate:"min=1"`
	JPEGQuality   int   `yaml:"jpeg_quality" env:"IMAGES_JPEG_QUALITY" env-default:"85" validate:"min=1,max=100"`
	MaxPixels     int64 `yaml:"max_pixels" env:"IMAGES_MAX_PIXELS" env-default:"50000000" validate:"min=1"`
}

type Retry struct {
	Attempts int           `yaml:"attempts" env:"RETRY_ATTEMPTS" env-default:"3" validate:"min=1"`
	Delay    time.Duration `yaml:"delay" env:"RETRY_DELAY" env-default:"100ms"`
	Backoff  float64       `yaml:"backoff" env:"RETRY_BACKOFF" env-default:"2"`
}

// MustLoad reads CONFIG_PATH (or the default file when it exists) and then
// applies environment overrides. A local .env file is loaded first if present.
func MustLoad() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read env config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) DBDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

func (c *Config) DefaultRetryStrategy() retry.Strategy {
	return retry.Strategy{
		Attempts: c.Retry.Attempts,
		Delay:    c.Retry.Delay,
		Backoff:  c.Retry.Backoff,
	}
}
