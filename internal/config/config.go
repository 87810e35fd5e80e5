package config

import (
	"fmt"
	"strings"

	"github.com/Netflix/go-env"
)

const (
	SinkDriverSupabase = "supabase"
	SinkDriverPostgres = "postgres"
)

type Config struct {
	WhatsAppToken      string `env:"WHATSAPP_TOKEN,required=true"`
	WhatsAppPhoneID    string `env:"WHATSAPP_PHONE_ID,required=true"`
	WebhookVerifyToken string `env:"WEBHOOK_VERIFY_TOKEN,required=true"`
	GraphBaseURL       string `env:"GRAPH_API_BASE_URL,default=https://graph.facebook.com/v21.0"`
	SinkDriver         string `env:"SINK_DRIVER,default=supabase"`
	SupabaseURL        string `env:"SUPABASE_URL"`
	SupabaseKey        string `env:"SUPABASE_ANON_KEY"`
	DatabaseDSN        string `env:"DATABASE_DSN"`
	RedisURL           string `env:"REDIS_URL"`
	DefaultCountryCode string `env:"DEFAULT_COUNTRY_CODE"`
	Port               int    `env:"PORT,default=3001"`
	LogLevel           string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.WebhookVerifyToken) == "" {
		return fmt.Errorf("WEBHOOK_VERIFY_TOKEN must not be empty")
	}

	switch c.SinkDriver {
	case SinkDriverSupabase:
		if strings.TrimSpace(c.SupabaseURL) == "" || strings.TrimSpace(c.SupabaseKey) == "" {
			return fmt.Errorf("supabase sink requires SUPABASE_URL and SUPABASE_ANON_KEY")
		}
	case SinkDriverPostgres:
		if strings.TrimSpace(c.DatabaseDSN) == "" {
			return fmt.Errorf("postgres sink requires DATABASE_DSN")
		}
	default:
		return fmt.Errorf("unknown sink driver %q", c.SinkDriver)
	}

	for _, r := range c.DefaultCountryCode {
		if r < '0' || r > '9' {
			return fmt.Errorf("DEFAULT_COUNTRY_CODE must contain only digits, got %q", c.DefaultCountryCode)
		}
	}

	return nil
}
