package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig `json:"server"`

	// Local store configuration
	Database DatabaseConfig `json:"database"`

	// Transport reconnection policy
	Reconnect ReconnectConfig `json:"reconnect"`

	// Diagnostics HTTP surface
	Diagnostics DiagnosticsConfig `json:"diagnostics"`

	// Logging Configuration
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig describes the backend the client talks to.
type ServerConfig struct {
	APIBaseURL     string `json:"api_base_url"`    // REST endpoint root, e.g. https://api.example.com
	WebsocketURL   string `json:"websocket_url"`   // realtime endpoint, e.g. wss://api.example.com/ws
	RequestTimeout int    `json:"request_timeout"` // seconds, applies to REST calls
}

// DatabaseConfig selects and configures the local message store engine.
// "sqlite" is the default (embedded, per-device); "mysql" exists for shared
// development deployments where several clients point at one database.
type DatabaseConfig struct {
	Engine string `json:"engine"` // sqlite, mysql

	// sqlite
	Path string `json:"path"` // file path, or :memory:

	// mysql
	Host         string `json:"host"`
	Port         string `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	DatabaseName string `json:"database_name"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

// ReconnectConfig is the transport reconnection backoff policy.
type ReconnectConfig struct {
	InitialIntervalMS int `json:"initial_interval_ms"` // first retry delay
	MaxIntervalMS     int `json:"max_interval_ms"`     // backoff cap
	MaxElapsedSec     int `json:"max_elapsed_sec"`     // 0 means retry forever
}

// DiagnosticsConfig controls the local debug HTTP server.
type DiagnosticsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    string `json:"port"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// LoadConfig reads configuration from the environment, falling back to a
// .env file in the working directory when present.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using system env variables")
	}

	return &Config{
		Server: ServerConfig{
			APIBaseURL:     getEnvOrDefault("CHAT_API_BASE_URL", "http://localhost:8080"),
			WebsocketURL:   getEnvOrDefault("CHAT_WS_URL", "ws://localhost:8080/ws"),
			RequestTimeout: getEnvIntOrDefault("CHAT_REQUEST_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Engine:       getEnvOrDefault("CHAT_DB_ENGINE", "sqlite"),
			Path:         getEnvOrDefault("CHAT_DB_PATH", "chat.db"),
			Host:         getEnvOrDefault("DB_HOST", "localhost"),
			Port:         getEnvOrDefault("DB_PORT", "3306"),
			Username:     getEnvOrDefault("DB_USER", "chat"),
			Password:     getEnvOrDefault("DB_PASSWORD", ""),
			DatabaseName: getEnvOrDefault("DB_NAME", "chat"),
			MaxOpenConns: getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvIntOrDefault("DB_MAX_IDLE_CONNS", 5),
		},
		Reconnect: ReconnectConfig{
			InitialIntervalMS: getEnvIntOrDefault("CHAT_RECONNECT_INITIAL_MS", 500),
			MaxIntervalMS:     getEnvIntOrDefault("CHAT_RECONNECT_MAX_MS", 30000),
			MaxElapsedSec:     getEnvIntOrDefault("CHAT_RECONNECT_MAX_ELAPSED_SEC", 0),
		},
		Diagnostics: DiagnosticsConfig{
			Enabled: getEnvBoolOrDefault("CHAT_DIAG_ENABLED", true),
			Port:    getEnvOrDefault("CHAT_DIAG_PORT", "7070"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}
}

// DSN builds the MySQL connection string from the database section.
func (cfg *Config) DSN() string {
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "3306"
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBoolOrDefault(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
