package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL      = "http://127.0.0.1:8000"
	DefaultServerDB    = "./taskdesk.db"
	DefaultListenAddr  = ":8000"
	DefaultTokenTTL    = 30 * time.Minute
	DefaultHTTPTimeout = 10 * time.Second
)

var ErrMissingSecret = errors.New("TASKDESK_JWT_SECRET is not set")

type Config struct {
	APIURL      string
	SessionDB   string
	ServerDB    string
	ListenAddr  string
	JWTSecret   string
	TokenTTL    time.Duration
	HTTPTimeout time.Duration
}

// Load reads an optional .env file and then the environment.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		APIURL:     stringOr(getenv("TASKDESK_API_URL"), DefaultAPIURL),
		SessionDB:  getenv("TASKDESK_SESSION_DB"),
		ServerDB:   stringOr(getenv("TASKDESK_SERVER_DB"), DefaultServerDB),
		ListenAddr: stringOr(getenv("TASKDESK_LISTEN_ADDR"), DefaultListenAddr),
		JWTSecret:  getenv("TASKDESK_JWT_SECRET"),
	}

	var err error
	if cfg.TokenTTL, err = durationOr(getenv("TASKDESK_TOKEN_TTL"), DefaultTokenTTL); err != nil {
		return Config{}, fmt.Errorf("TASKDESK_TOKEN_TTL: %w", err)
	}
	if cfg.HTTPTimeout, err = durationOr(getenv("TASKDESK_HTTP_TIMEOUT"), DefaultHTTPTimeout); err != nil {
		return Config{}, fmt.Errorf("TASKDESK_HTTP_TIMEOUT: %w", err)
	}

	if cfg.SessionDB == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return Config{}, fmt.Errorf("locate config dir: %w", err)
		}
		cfg.SessionDB = filepath.Join(dir, "taskdesk", "session.db")
	}
	return cfg, nil
}

// ServerReady reports whether the config can run the REST server.
func (c Config) ServerReady() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	return nil
}

func stringOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func durationOr(v string, fallback time.Duration) (time.Duration, error) {
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", v)
	}
	return d, nil
}
