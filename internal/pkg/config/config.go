package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments, security settings
// - default: Values common across all environments, standard settings
// -----------------------------------------------------------------------------

type Config struct {
	API     APIConfig
	Session SessionConfig
	Log     LogConfig
	Stub    StubConfig
}

type APIConfig struct {
	BaseURL string        `envconfig:"EVENTIX_API_URL" default:"http://localhost:3000/api"`
	Timeout time.Duration `envconfig:"EVENTIX_API_TIMEOUT" default:"10s"`
}

type SessionConfig struct {
	// Empty means <user config dir>/eventix/session.json.
	Path string `envconfig:"EVENTIX_SESSION_FILE" default:""`
}

type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
}

type StubConfig struct {
	Port          string        `envconfig:"STUB_PORT" default:"3000"`
	JWTSecret     string        `envconfig:"STUB_JWT_SECRET" default:"eventix-dev-secret"`
	TokenDuration time.Duration `envconfig:"STUB_TOKEN_DURATION" default:"24h"`
	LockTTL       time.Duration `envconfig:"STUB_LOCK_TTL" default:"300s"`
	OTPTTL        time.Duration `envconfig:"STUB_OTP_TTL" default:"120s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:13000/api", // overridden per test server
			Timeout: 2 * time.Second,
		},
		Session: SessionConfig{
			Path: "", // tests point this at t.TempDir()
		},
		Log: LogConfig{
			Level:      "error", // Error level only for tests
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		Stub: StubConfig{
			Port:          "13000",
			JWTSecret:     "test-secret",
			TokenDuration: time.Hour,
			LockTTL:       300 * time.Second,
			OTPTTL:        120 * time.Second,
		},
	}
}
