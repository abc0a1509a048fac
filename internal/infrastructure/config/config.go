package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"

	"go-group-relay/internal/infrastructure/logger"
)

// Config holds every tunable of the relay, loaded from the environment.
type Config struct {
	AppEnv string `env:"APP_ENV" default:"development"`
	Port   string `env:"PORT" default:"8080"`

	LogLevel      string `env:"LOG_LEVEL" default:"info"`
	LogFormat     string `env:"LOG_FORMAT" default:"console"` // json, text, console
	LogOutput     string `env:"LOG_OUTPUT" default:"stdout"`  // stdout, stderr, file
	LogFilePath   string `env:"LOG_FILE_PATH"`
	LogMaxSize    int    `env:"LOG_MAX_SIZE" default:"100"` // MB
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" default:"3"`
	LogMaxAge     int    `env:"LOG_MAX_AGE" default:"28"` // days
	LogCompress   bool   `env:"LOG_COMPRESS" default:"true"`

	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" default:"0s"` // 0 keeps event streams open
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"5s"`

	SendTimeout          time.Duration `env:"BROADCAST_SEND_TIMEOUT" default:"5s"`
	BroadcastConcurrency int           `env:"BROADCAST_CONCURRENCY" default:"64"`
	CleanupInterval      time.Duration `env:"HUB_CLEANUP_INTERVAL" default:"30s"`

	WSWriteTimeout   time.Duration `env:"WS_WRITE_TIMEOUT" default:"10s"`
	WSPongTimeout    time.Duration `env:"WS_PONG_TIMEOUT" default:"60s"`
	WSMaxMessageSize int64         `env:"WS_MAX_MESSAGE_SIZE" default:"4096"`
	WSSendBuffer     int           `env:"WS_SEND_BUFFER" default:"256"`
	WSMessageRate    float64       `env:"WS_MESSAGE_RATE" default:"20"`
	WSMessageBurst   int           `env:"WS_MESSAGE_BURST" default:"40"`

	SSEKeepAlive time.Duration `env:"SSE_KEEPALIVE_INTERVAL" default:"30s"`

	// 0 keeps quiet members connected
	ConnIdleTimeout time.Duration `env:"CONN_IDLE_TIMEOUT" default:"30m"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	// a missing .env is the normal case outside development
	_ = godotenv.Load()

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Port == "" {
		return errors.New("PORT is required")
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.LogOutput == "file" && cfg.LogFilePath == "" {
		return errors.New("LOG_FILE_PATH is required when LOG_OUTPUT is file")
	}
	if cfg.SendTimeout <= 0 {
		return errors.New("BROADCAST_SEND_TIMEOUT must be positive")
	}
	if cfg.BroadcastConcurrency < 1 {
		return errors.New("BROADCAST_CONCURRENCY must be at least 1")
	}
	if cfg.CleanupInterval <= 0 {
		return errors.New("HUB_CLEANUP_INTERVAL must be positive")
	}
	if cfg.WSPongTimeout <= 0 {
		return errors.New("WS_PONG_TIMEOUT must be positive")
	}
	if cfg.WSSendBuffer < 1 {
		return errors.New("WS_SEND_BUFFER must be at least 1")
	}
	if cfg.WSMessageRate <= 0 || cfg.WSMessageBurst < 1 {
		return errors.New("WS_MESSAGE_RATE and WS_MESSAGE_BURST must be positive")
	}
	if cfg.ConnIdleTimeout < 0 {
		return errors.New("CONN_IDLE_TIMEOUT must not be negative")
	}
	return nil
}

// ParseLevel maps a level name onto a logger level.
func ParseLevel(name string) (logger.Level, error) {
	switch name {
	case "debug":
		return logger.LevelDebug, nil
	case "info", "":
		return logger.LevelInfo, nil
	case "warn":
		return logger.LevelWarn, nil
	case "error":
		return logger.LevelError, nil
	case "fatal":
		return logger.LevelFatal, nil
	default:
		return logger.LevelInfo, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error, fatal", name)
	}
}

// Logger builds the logger configuration, keeping the default static fields.
func (c *Config) Logger() *logger.Config {
	lCfg := logger.NewDefaultConfig()
	lCfg.Level, _ = ParseLevel(c.LogLevel)
	lCfg.Format = c.LogFormat
	lCfg.Output = c.LogOutput
	lCfg.FilePath = c.LogFilePath
	lCfg.MaxSize = c.LogMaxSize
	lCfg.MaxBackups = c.LogMaxBackups
	lCfg.MaxAge = c.LogMaxAge
	lCfg.Compress = c.LogCompress
	lCfg.Fields["environment"] = c.AppEnv
	return lCfg
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
