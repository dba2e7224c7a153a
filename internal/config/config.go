package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ObjectStoreNone       = "none"
	ObjectStoreS3         = "s3"
	ObjectStoreCloudinary = "cloudinary"
)

type Config struct {
	Env  string `mapstructure:"APP_ENV"`
	Port int    `mapstructure:"PORT"`

	DBConn             string        `mapstructure:"DB_CONN"`
	DBMaxOpenConns     int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns     int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetime  time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`
	DBStatementTimeout time.Duration `mapstructure:"DB_STATEMENT_TIMEOUT"`

	JWTSecret    string        `mapstructure:"JWT_SECRET"`
	JWTExpiresIn time.Duration `mapstructure:"JWT_EXPIRES_IN"`

	CORSOrigin  string `mapstructure:"CORS_ORIGIN"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	AuthRateLimit  int           `mapstructure:"AUTH_RATE_LIMIT"`
	AuthRateWindow time.Duration `mapstructure:"AUTH_RATE_WINDOW"`

	SMTPHost      string `mapstructure:"SMTP_HOST"`
	SMTPPort      int    `mapstructure:"SMTP_PORT"`
	SMTPUser      string `mapstructure:"SMTP_USER"`
	SMTPPass      string `mapstructure:"SMTP_PASS"`
	EmailFrom     string `mapstructure:"EMAIL_FROM"`
	EmailFromName string `mapstructure:"EMAIL_FROM_NAME"`

	RabbitMQConn string `mapstructure:"RABBIT_MQ_CONN"`

	ObjectStore      string `mapstructure:"OBJECT_STORE"`
	S3Bucket         string `mapstructure:"S3_BUCKET"`
	S3Region         string `mapstructure:"S3_REGION"`
	CloudinaryCloud  string `mapstructure:"CLOUDINARY_CLOUD"`
	CloudinaryKey    string `mapstructure:"CLOUDINARY_KEY"`
	CloudinarySecret string `mapstructure:"CLOUDINARY_SECRET"`
}

var defaults = map[string]any{
	"APP_ENV":              "dev",
	"PORT":                 3001,
	"DB_MAX_OPEN_CONNS":    10,
	"DB_MAX_IDLE_CONNS":    5,
	"DB_CONN_MAX_LIFETIME": 30 * time.Minute,
	"DB_STATEMENT_TIMEOUT": 5 * time.Second,
	"JWT_EXPIRES_IN":       7 * 24 * time.Hour,
	"CORS_ORIGIN":          "http://localhost:5173",
	"AUTH_RATE_LIMIT":      20,
	"AUTH_RATE_WINDOW":     15 * time.Minute,
	"SMTP_PORT":            587,
	"EMAIL_FROM_NAME":      "Bookshelf Helpdesk",
	"OBJECT_STORE":         ObjectStoreNone,
	"S3_REGION":            "us-west-2",
}

// keys without a default still have to be bound, viper only unmarshals
// keys it knows about.
var boundKeys = []string{
	"DB_CONN",
	"JWT_SECRET",
	"FRONTEND_URL",
	"SMTP_HOST",
	"SMTP_USER",
	"SMTP_PASS",
	"EMAIL_FROM",
	"RABBIT_MQ_CONN",
	"S3_BUCKET",
	"CLOUDINARY_CLOUD",
	"CLOUDINARY_KEY",
	"CLOUDINARY_SECRET",
}

const devJWTSecret = "dev-secret-change-in-production"

// Load reads envFile (if it exists) into the process environment and builds
// the configuration from the environment and defaults.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading env file: %v", err)
		}
	}

	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	for _, key := range boundKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding %s: %v", key, err)
		}
	}

	v.AutomaticEnv()

	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %v", err)
	}

	if cfg.FrontendURL == "" {
		cfg.FrontendURL = cfg.CORSOrigin
	}

	if cfg.JWTSecret == "" && cfg.Env == "dev" {
		cfg.JWTSecret = devJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Env != "dev" && c.Env != "prod" {
		return fmt.Errorf("environment can only be dev or prod")
	}

	if c.Env == "prod" {
		if c.JWTSecret == "" || c.JWTSecret == devJWTSecret {
			return fmt.Errorf("JWT_SECRET is required in prod")
		}
		if c.DBConn == "" {
			return fmt.Errorf("DB_CONN is required in prod")
		}
	}

	switch c.ObjectStore {
	case ObjectStoreNone:
	case ObjectStoreS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when OBJECT_STORE is s3")
		}
	case ObjectStoreCloudinary:
		if c.CloudinaryCloud == "" || c.CloudinaryKey == "" || c.CloudinarySecret == "" {
			return fmt.Errorf("cloudinary credentials are required when OBJECT_STORE is cloudinary")
		}
	default:
		return fmt.Errorf("OBJECT_STORE can only be none, s3 or cloudinary")
	}

	if c.AuthRateLimit < 1 || c.AuthRateWindow <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT and AUTH_RATE_WINDOW must be positive")
	}

	return nil
}

// IsDev reports whether the service runs in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}
