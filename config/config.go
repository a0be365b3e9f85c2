package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Issuance IssuanceConfig
	SMTP     SMTPConfig
}

type ServerConfig struct {
	Port            string
	GinMode         string
	LogLevel        string
	CheckoutTimeout time.Duration
	CheckoutLockTTL time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

type IssuanceConfig struct {
	// QRSecret signs the payload embedded in each ticket's QR code.
	QRSecret      string
	Workers       int
	QueueBackend  string // "memory" or "redis"
	QueueBuffer   int
	MaxRetryCount int
	QRSize        int
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
	// Timeout bounds one delivery, dial to QUIT.
	Timeout time.Duration
}

var AppConfig *Config

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}

	AppConfig = &Config{
		Server:   GetServerConfig(),
		Database: GetDatabaseConfig(),
		Redis:    GetRedisConfig(),
		Auth:     GetAuthConfig(),
		Issuance: GetIssuanceConfig(),
		SMTP:     GetSMTPConfig(),
	}

	return AppConfig
}

func LoadTestConfig() *Config {
	testConfig := &DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnv("TEST_DB_PORT", "5433"),
		User:     "postgres",
		Password: "postgres",
		DBName:   "tixify_test",
		SSLMode:  "disable",
		MaxConns: 25,
		MinConns: 1,
	}

	testRedisConfig := RedisConfig{
		Host:     getEnv("TEST_REDIS_HOST", "localhost"),
		Port:     getEnv("TEST_REDIS_PORT", "6380"),
		Password: "",
		DB:       1,
	}

	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			GinMode:         "test",
			LogLevel:        "warn",
			CheckoutTimeout: 5 * time.Second,
			CheckoutLockTTL: 10 * time.Second,
			ShutdownTimeout: time.Second,
		},
		Database: *testConfig,
		Redis:    testRedisConfig,
		Auth:     AuthConfig{JWTSecret: "test-jwt-secret"},
		Issuance: IssuanceConfig{
			QRSecret:      "test-qr-secret",
			Workers:       1,
			QueueBackend:  "memory",
			QueueBuffer:   16,
			MaxRetryCount: 3,
			QRSize:        256,
		},
		SMTP: SMTPConfig{Host: "localhost", Port: "1025", From: "tickets@tixify.test", FromName: "Tixify", Timeout: 5 * time.Second},
	}
}

func GetServerConfig() ServerConfig {
	return ServerConfig{
		Port:            getEnv("PORT", "8080"),
		GinMode:         getEnv("GIN_MODE", "release"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CheckoutTimeout: getEnvDuration("CHECKOUT_TIMEOUT", 10*time.Second),
		CheckoutLockTTL: getEnvDuration("CHECKOUT_LOCK_TTL", 30*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "tixify"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(getEnvInt("DB_MAX_CONNS", 25)),
		MinConns: int32(getEnvInt("DB_MIN_CONNS", 5)),
	}
}

func GetRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}
}

func GetAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret: getEnv("JWT_SECRET", ""),
	}
}

func GetIssuanceConfig() IssuanceConfig {
	return IssuanceConfig{
		QRSecret:      getEnv("QR_SECRET", ""),
		Workers:       getEnvInt("ISSUANCE_WORKERS", 4),
		QueueBackend:  getEnv("ISSUANCE_QUEUE", "redis"),
		QueueBuffer:   getEnvInt("ISSUANCE_QUEUE_BUFFER", 1024),
		MaxRetryCount: getEnvInt("ISSUANCE_MAX_RETRIES", 5),
		QRSize:        getEnvInt("QR_SIZE", 512),
	}
}

func GetSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Host:     getEnv("SMTP_HOST", "localhost"),
		Port:     getEnv("SMTP_PORT", "587"),
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", "tickets@tixify.app"),
		FromName: getEnv("SMTP_FROM_NAME", "Tixify"),
		Timeout:  getEnvDuration("SMTP_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		panic(err)
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		panic(err)
	}
	return d
}
