package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("auth.jwt_secret must be at least 16 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be > 0 (got %s)", c.Auth.TokenTTL)
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31 (got %d)", c.Auth.BcryptCost)
	}

	if err := c.AI.validate(); err != nil {
		return fmt.Errorf("ai: %w", err)
	}
	if err := c.Mail.validate(); err != nil {
		return fmt.Errorf("mail: %w", err)
	}

	if c.Uploads.MaxBytes <= 0 {
		return fmt.Errorf("uploads.max_bytes must be > 0 (got %d)", c.Uploads.MaxBytes)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path is required")
	}

	return nil
}

func (a *AIConfig) validate() error {
	a.Provider = strings.ToLower(strings.TrimSpace(a.Provider))
	switch a.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("provider must be openai or anthropic (got %q)", a.Provider)
	}
	if a.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %s)", a.Timeout)
	}
	if a.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be > 0 (got %d)", a.MaxTokens)
	}
	return nil
}

func (m *MailConfig) validate() error {
	m.Transport = strings.ToLower(strings.TrimSpace(m.Transport))
	switch m.Transport {
	case "log", "redis":
	case "smtp":
		if m.SMTPHost == "" {
			return fmt.Errorf("smtp_host is required for the smtp transport")
		}
	default:
		return fmt.Errorf("transport must be log, smtp or redis (got %q)", m.Transport)
	}
	return nil
}

// Origins splits the comma-separated AllowedOrigins list.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
