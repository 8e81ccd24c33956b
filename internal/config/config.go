// Package config loads the server configuration from an optional YAML file
// and environment variables.
//
// PRIORITY:
//
//	ENV > YAML > env-default tags
//
// Every field has a sensible default except the JWT secret, so a developer can
// run the server with nothing but AUTH_JWT_SECRET set. The generation provider
// key is optional at startup; without it every AI-backed endpoint answers 500
// and the rest of the API keeps working.
package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	AI        AIConfig        `yaml:"ai"`
	Mail      MailConfig      `yaml:"mail"`
	Uploads   UploadsConfig   `yaml:"uploads"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	CORS      CORSConfig      `yaml:"cors"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
//
// WriteTimeout is deliberately longer than the AI timeout: a request that
// waits on the generation provider must still be able to write its response.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"90s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"30s"`
}

// DatabaseConfig holds the SQLite file location.
// ":memory:" gives a throwaway database.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"DB_PATH" env-default:"data/execmind.db"`
}

// AuthConfig holds token and password settings.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"  env:"AUTH_JWT_SECRET"  env-required:"true"`
	JWTIssuer  string        `yaml:"jwt_issuer"  env:"AUTH_JWT_ISSUER"  env-default:"execmind"`
	TokenTTL   time.Duration `yaml:"token_ttl"   env:"AUTH_TOKEN_TTL"   env-default:"168h"`
	BcryptCost int           `yaml:"bcrypt_cost" env:"AUTH_BCRYPT_COST" env-default:"12"`
}

// AIConfig selects and configures the text-generation provider.
//
// Provider is "openai" (any OpenAI-compatible endpoint, including audio) or
// "anthropic" (text only; transcription and speech report unsupported).
type AIConfig struct {
	Provider           string        `yaml:"provider"            env:"AI_PROVIDER"            env-default:"openai"`
	APIKey             string        `yaml:"api_key"             env:"AI_API_KEY"`
	BaseURL            string        `yaml:"base_url"            env:"AI_BASE_URL"            env-default:"https://api.openai.com/v1"`
	Model              string        `yaml:"model"               env:"AI_MODEL"               env-default:"gpt-4o"`
	Temperature        float64       `yaml:"temperature"         env:"AI_TEMPERATURE"         env-default:"0.7"`
	MaxTokens          int           `yaml:"max_tokens"          env:"AI_MAX_TOKENS"          env-default:"4096"`
	Timeout            time.Duration `yaml:"timeout"             env:"AI_TIMEOUT"             env-default:"60s"`
	TranscriptionModel string        `yaml:"transcription_model" env:"AI_TRANSCRIPTION_MODEL" env-default:"whisper-1"`
	SpeechModel        string        `yaml:"speech_model"        env:"AI_SPEECH_MODEL"        env-default:"tts-1"`
	SpeechVoice        string        `yaml:"speech_voice"        env:"AI_SPEECH_VOICE"        env-default:"alloy"`
}

// MailConfig selects the outbound mail transport.
//
// Transport "log" only writes the message to the log, "smtp" delivers
// directly, "redis" pushes a JSON job onto a Redis list for a mail worker.
type MailConfig struct {
	Transport    string `yaml:"transport"     env:"MAIL_TRANSPORT"     env-default:"log"`
	From         string `yaml:"from"          env:"MAIL_FROM"          env-default:"ExecMind <no-reply@execmind.local>"`
	SMTPHost     string `yaml:"smtp_host"     env:"SMTP_HOST"`
	SMTPPort     int    `yaml:"smtp_port"     env:"SMTP_PORT"          env-default:"587"`
	SMTPUsername string `yaml:"smtp_username" env:"SMTP_USERNAME"`
	SMTPPassword string `yaml:"smtp_password" env:"SMTP_PASSWORD"`
	RedisURL     string `yaml:"redis_url"     env:"MAIL_REDIS_URL"     env-default:"redis://localhost:6379/0"`
	Queue        string `yaml:"queue"         env:"MAIL_QUEUE"         env-default:"execmind:mail"`
}

// UploadsConfig controls where multipart uploads are staged.
type UploadsConfig struct {
	Dir      string `yaml:"dir"       env:"UPLOAD_DIR"       env-default:"uploads"`
	MaxBytes int64  `yaml:"max_bytes" env:"UPLOAD_MAX_BYTES" env-default:"52428800"`
}

// KnowledgeConfig points at an optional YAML knowledge base. An empty path
// uses the built-in one.
type KnowledgeConfig struct {
	Path string `yaml:"path" env:"KNOWLEDGE_PATH"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"http://localhost:3001"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PATCH,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}
