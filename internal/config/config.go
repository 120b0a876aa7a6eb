package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	DB      DatabaseConfig
	JWT     JWTConfig
	CORS    CORSConfig
	AI      AIConfig
	Reports ReportsConfig
}

type ServerConfig struct {
	Port         string
	GinMode      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type AIConfig struct {
	URL         string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration

	// ExposeDiagnostics returns the raw model output and validation
	// errors to the caller when generation fails. Useful for the report
	// builder UI; turn off if prompts must not echo back.
	ExposeDiagnostics bool
}

type ReportsConfig struct {
	// Strict rejects specs carrying unknown fields or filters instead of
	// silently dropping them.
	Strict     bool
	EnableXLSX bool
	EnablePDF  bool
}

var envBindings = map[string]string{
	"server.port":          "HABITA_SERVER_PORT",
	"server.gin_mode":      "HABITA_GIN_MODE",
	"server.read_timeout":  "HABITA_SERVER_READ_TIMEOUT",
	"server.write_timeout": "HABITA_SERVER_WRITE_TIMEOUT",
	"db.host":              "HABITA_DB_HOST",
	"db.port":              "HABITA_DB_PORT",
	"db.user":              "HABITA_DB_USER",
	"db.password":          "HABITA_DB_PASSWORD",
	"db.name":              "HABITA_DB_NAME",
	"db.sslmode":           "HABITA_DB_SSLMODE",
	"db.max_open_conns":    "HABITA_DB_MAX_OPEN_CONNS",
	"db.max_idle_conns":    "HABITA_DB_MAX_IDLE_CONNS",
	"db.conn_max_lifetime": "HABITA_DB_CONN_MAX_LIFETIME",
	"jwt.secret":           "HABITA_JWT_SECRET",
	"cors.origins":         "HABITA_CORS_ORIGINS",
	"ai.url":               "HABITA_AI_URL",
	"ai.api_key":           "HABITA_AI_API_KEY",
	"ai.model":             "HABITA_AI_MODEL",
	"ai.temperature":       "HABITA_AI_TEMPERATURE",
	"ai.timeout":           "HABITA_AI_TIMEOUT",
	"ai.expose_diag":       "HABITA_AI_EXPOSE_DIAGNOSTICS",
	"reports.strict":       "HABITA_REPORTS_STRICT",
	"reports.enable_xlsx":  "HABITA_REPORTS_ENABLE_XLSX",
	"reports.enable_pdf":   "HABITA_REPORTS_ENABLE_PDF",
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "habita")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "habita")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("cors.origins", "*")
	v.SetDefault("ai.url", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("ai.expose_diag", true)
	v.SetDefault("reports.strict", false)
	v.SetDefault("reports.enable_xlsx", true)
	v.SetDefault("reports.enable_pdf", true)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("config.Load: bind %s: %w", key, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			GinMode:      v.GetString("server.gin_mode"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
		DB: DatabaseConfig{
			Host:            v.GetString("db.host"),
			Port:            v.GetString("db.port"),
			User:            v.GetString("db.user"),
			Password:        v.GetString("db.password"),
			Name:            v.GetString("db.name"),
			SSLMode:         v.GetString("db.sslmode"),
			MaxOpenConns:    v.GetInt("db.max_open_conns"),
			MaxIdleConns:    v.GetInt("db.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db.conn_max_lifetime"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(v.GetString("cors.origins")),
		},
		AI: AIConfig{
			URL:               v.GetString("ai.url"),
			APIKey:            v.GetString("ai.api_key"),
			Model:             v.GetString("ai.model"),
			Temperature:       v.GetFloat64("ai.temperature"),
			Timeout:           v.GetDuration("ai.timeout"),
			ExposeDiagnostics: v.GetBool("ai.expose_diag"),
		},
		Reports: ReportsConfig{
			Strict:     v.GetBool("reports.strict"),
			EnableXLSX: v.GetBool("reports.enable_xlsx"),
			EnablePDF:  v.GetBool("reports.enable_pdf"),
		},
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("config.Load: HABITA_JWT_SECRET is required")
	}
	return cfg, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
