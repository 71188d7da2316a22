package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// APIServerConfig 保存 API 服务器特有的配置。
type APIServerConfig struct {
	Host           string        `mapstructure:"HOST"`
	Port           string        `mapstructure:"PORT"`
	PublicURL      string        `mapstructure:"PUBLIC_URL"` // 邮件中链接使用的外部地址
	ReadTimeout    time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout   time.Duration `mapstructure:"WRITE_TIMEOUT"`
	IdleTimeout    time.Duration `mapstructure:"IDLE_TIMEOUT"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	MaxBodyBytes   int64         `mapstructure:"MAX_BODY_BYTES"`
	CORS           CORSConfig    `mapstructure:"CORS"`
}

// CORSConfig holds configuration for CORS.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"ALLOWED_ORIGINS"`
	AllowedMethods   []string `mapstructure:"ALLOWED_METHODS"`
	AllowedHeaders   []string `mapstructure:"ALLOWED_HEADERS"`
	ExposedHeaders   []string `mapstructure:"EXPOSED_HEADERS"`
	AllowCredentials bool     `mapstructure:"ALLOW_CREDENTIALS"`
	MaxAge           int      `mapstructure:"MAX_AGE"`
}

// RedisConfig holds configuration for Redis.
type RedisConfig struct {
	Addr     string `mapstructure:"ADDR"`
	Password string `mapstructure:"PASSWORD"`
	DB       int    `mapstructure:"DB"`
}

// Config holds all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	AppName    string          `mapstructure:"APP_NAME"`
	AppVersion string          `mapstructure:"APP_VERSION"`
	LogLevel   string          `mapstructure:"LOG_LEVEL"`
	LogFormat  string          `mapstructure:"LOG_FORMAT"` // "text" or "json"
	APIServer  APIServerConfig `mapstructure:"API_SERVER"`
	Kafka      KafkaConfig     `mapstructure:"KAFKA"`
	Database   DatabaseConfig  `mapstructure:"DATABASE"`
	Mongo      MongoConfig     `mapstructure:"MONGO"`
	Storage    StorageConfig   `mapstructure:"STORAGE"`
	Auth       AuthConfig      `mapstructure:"AUTH"`
	Mail       MailConfig      `mapstructure:"MAIL"`
	Redis      RedisConfig     `mapstructure:"REDIS"`
	Telemetry  TelemetryConfig `mapstructure:"TELEMETRY"`
}

// KafkaConfig holds configuration for Kafka.
type KafkaConfig struct {
	Brokers       []string `mapstructure:"BROKERS"`
	ClientID      string   `mapstructure:"CLIENT_ID"`
	EmailTopic    string   `mapstructure:"EMAIL_TOPIC"` // 邮件发件箱 topic，由 cmd/mailer 消费
	ConsumerGroup string   `mapstructure:"CONSUMER_GROUP"`
	Protocol      string   `mapstructure:"PROTOCOL"`
}

// DatabaseConfig holds configuration for the relational database.
type DatabaseConfig struct {
	Type     string `mapstructure:"TYPE"`
	Host     string `mapstructure:"HOST"`
	Port     int    `mapstructure:"PORT"`
	User     string `mapstructure:"USER"`
	Password string `mapstructure:"PASSWORD"`
	DBName   string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"SSL_MODE"`
	LogLevel string `mapstructure:"LOG_LEVEL"` // gorm logger: silent, error, warn, info
}

// MongoConfig holds configuration for the document store (posts, comments).
type MongoConfig struct {
	URI            string        `mapstructure:"URI"`
	Database       string        `mapstructure:"DATABASE"`
	ConnectTimeout time.Duration `mapstructure:"CONNECT_TIMEOUT"`
}

// StorageConfig holds configuration for file storage.
type StorageConfig struct {
	Type          string   `mapstructure:"TYPE"` // "local", "s3"
	LocalPath     string   `mapstructure:"LOCAL_PATH"`
	BaseURL       string   `mapstructure:"BASE_URL"`
	MaxFileSizeMB int64    `mapstructure:"MAX_FILE_SIZE_MB"`
	S3            S3Config `mapstructure:"S3"`
}

// S3Config holds configuration for S3 compatible storage like MinIO.
type S3Config struct {
	BucketName      string `mapstructure:"BUCKET_NAME"`
	Region          string `mapstructure:"REGION"`
	AccessKeyID     string `mapstructure:"ACCESS_KEY_ID"`
	SecretAccessKey string `mapstructure:"SECRET_ACCESS_KEY"`
	Endpoint        string `mapstructure:"ENDPOINT"`
	UseSSL          bool   `mapstructure:"USE_SSL"`
	PublicURL       string `mapstructure:"PUBLIC_URL"`
}

// AuthConfig holds configuration for authentication (JWT and emailed tokens).
type AuthConfig struct {
	JWTSecretKey    string        `mapstructure:"JWT_SECRET_KEY"`
	JWTExpiry       time.Duration `mapstructure:"JWT_EXPIRY"`
	JWTIssuer       string        `mapstructure:"JWT_ISSUER"`
	VerificationTTL time.Duration `mapstructure:"VERIFICATION_TTL"`
	ResetTTL        time.Duration `mapstructure:"RESET_TTL"`
}

// MailConfig selects how outgoing mail leaves the API server.
type MailConfig struct {
	Transport    string `mapstructure:"TRANSPORT"` // "log", "kafka", "smtp"
	From         string `mapstructure:"FROM"`
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
}

// TelemetryConfig holds OpenTelemetry tracing settings.
type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"ENABLED"`
	Endpoint     string  `mapstructure:"ENDPOINT"`
	ServiceName  string  `mapstructure:"SERVICE_NAME"`
	Environment  string  `mapstructure:"ENVIRONMENT"`
	SampleRatio  float64 `mapstructure:"SAMPLE_RATIO"`
	InsecureHTTP bool    `mapstructure:"INSECURE"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()

	v.SetDefault("APP_NAME", "Social-Go")
	v.SetDefault("APP_VERSION", "0.1.0")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	// APIServer Defaults
	v.SetDefault("API_SERVER.HOST", "0.0.0.0")
	v.SetDefault("API_SERVER.PORT", "8800")
	v.SetDefault("API_SERVER.PUBLIC_URL", "http://localhost:8800")
	v.SetDefault("API_SERVER.READ_TIMEOUT", 30*time.Second)
	v.SetDefault("API_SERVER.WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("API_SERVER.IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("API_SERVER.REQUEST_TIMEOUT", 15*time.Second)
	v.SetDefault("API_SERVER.MAX_BODY_BYTES", 10<<20) // 10 MB, same as the JSON limit of the web client
	v.SetDefault("API_SERVER.CORS.ALLOWED_ORIGINS", []string{"http://localhost:3000"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"})
	v.SetDefault("API_SERVER.CORS.EXPOSED_HEADERS", []string{"Content-Length"})
	v.SetDefault("API_SERVER.CORS.ALLOW_CREDENTIALS", true)
	v.SetDefault("API_SERVER.CORS.MAX_AGE", 300)

	// Kafka Defaults
	v.SetDefault("KAFKA.BROKERS", []string{"localhost:9092"})
	v.SetDefault("KAFKA.CLIENT_ID", "social-go")
	v.SetDefault("KAFKA.EMAIL_TOPIC", "social-email-outbox")
	v.SetDefault("KAFKA.CONSUMER_GROUP", "social-mailer-group")
	v.SetDefault("KAFKA.PROTOCOL", "plaintext")

	// Database Defaults (PostgreSQL)
	v.SetDefault("DATABASE.TYPE", "postgres")
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "password")
	v.SetDefault("DATABASE.DB_NAME", "social_go_db")
	v.SetDefault("DATABASE.SSL_MODE", "disable")
	v.SetDefault("DATABASE.LOG_LEVEL", "warn")

	// Mongo Defaults
	v.SetDefault("MONGO.URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO.DATABASE", "social_go")
	v.SetDefault("MONGO.CONNECT_TIMEOUT", 10*time.Second)

	// Storage Defaults
	v.SetDefault("STORAGE.TYPE", "local")
	v.SetDefault("STORAGE.LOCAL_PATH", "./uploads")
	v.SetDefault("STORAGE.BASE_URL", "/uploads")
	v.SetDefault("STORAGE.MAX_FILE_SIZE_MB", 10)
	v.SetDefault("STORAGE.S3.BUCKET_NAME", "social-media")
	v.SetDefault("STORAGE.S3.REGION", "us-east-1")

	// Auth Defaults
	v.SetDefault("AUTH.JWT_SECRET_KEY", "a_very_secret_key_that_should_be_changed")
	v.SetDefault("AUTH.JWT_EXPIRY", 24*time.Hour)
	v.SetDefault("AUTH.JWT_ISSUER", "social-go-server")
	v.SetDefault("AUTH.VERIFICATION_TTL", time.Hour)
	v.SetDefault("AUTH.RESET_TTL", 10*time.Minute)

	// Mail Defaults
	v.SetDefault("MAIL.TRANSPORT", "log")
	v.SetDefault("MAIL.FROM", "no-reply@social-go.local")
	v.SetDefault("MAIL.SMTP_HOST", "localhost")
	v.SetDefault("MAIL.SMTP_PORT", 587)

	// Redis Defaults
	v.SetDefault("REDIS.ADDR", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)

	// Telemetry Defaults
	v.SetDefault("TELEMETRY.ENABLED", false)
	v.SetDefault("TELEMETRY.ENDPOINT", "localhost:4318")
	v.SetDefault("TELEMETRY.SERVICE_NAME", "social-go-api")
	v.SetDefault("TELEMETRY.ENVIRONMENT", "local")
	v.SetDefault("TELEMETRY.SAMPLE_RATIO", 1.0)
	v.SetDefault("TELEMETRY.INSECURE", true)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Environment variables override file values: API_SERVER_PORT -> API_SERVER.PORT
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		// 没有配置文件时使用默认值
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}
