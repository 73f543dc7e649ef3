package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds everything read from the environment. Secrets stay opaque
// strings here; the secret store owns key material.
type Config struct {
	DatabaseURL     string `env:"DATABASE_URL,required"`
	FernetSecretKey string `env:"FERNET_SECRET_KEY,required"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	OpenAIModel     string `env:"OPENAI_MODEL" envDefault:"gpt-4o"`
	JWTSecret       string `env:"JWT_SECRET,required"`
	AdminAPIKey     string `env:"ADMIN_API_KEY"`
	AdminUsername   string `env:"ADMIN_USERNAME" envDefault:"root"`
	AdminPassword   string `env:"ADMIN_PASSWORD" envDefault:"root"`
	ListenAddr      string `env:"LISTEN_ADDR" envDefault:"0.0.0.0:8080"`
	GraphAPIVersion string `env:"GRAPH_API_VERSION" envDefault:"v19.0"`
	ZAPIBaseURL     string `env:"ZAPI_BASE_URL" envDefault:"https://api.z-api.io"`

	// DebugBypassSignature disables webhook HMAC verification. Test
	// environments only; main logs a warning whenever it is on.
	DebugBypassSignature bool `env:"DEBUG_BYPASS_SIGNATURE" envDefault:"false"`
}

// Load reads .env (if present) and parses the environment.
func Load() (*Config, error) {
	// Missing .env is fine in production; variables come from the runtime.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
