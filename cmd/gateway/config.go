package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const tunablesFile = "config.yaml"

// AppConfig holds all configuration for the gateway. It is loaded once at
// startup and read-only afterwards; every component receives it by injection.
type AppConfig struct {
	GeminiAPIKey      string
	ModelName         string
	ToolServerBaseURL string
	JWTSecret         string
	Port              string
	RedisAddr         string

	TokenTTL        time.Duration
	ToolTimeout     time.Duration
	CacheTTL        time.Duration
	MaxOutputTokens int32
}

// tunables mirrors the optional config.yaml. Everything in it has a default,
// so the file may be absent.
type tunables struct {
	Token struct {
		TTLSeconds int `yaml:"ttl_seconds"`
	} `yaml:"token"`
	ToolServer struct {
		TimeoutSeconds int `yaml:"timeout_seconds"`
	} `yaml:"tool_server"`
	Cache struct {
		TTLSeconds int `yaml:"ttl_seconds"`
	} `yaml:"cache"`
	Model struct {
		MaxOutputTokens int32 `yaml:"max_output_tokens"`
	} `yaml:"model"`
}

// LoadConfig loads configuration from a .env file, environment variables, and
// the optional config.yaml. Any missing required value is a fatal startup
// condition, never a per-request one.
func LoadConfig() (*AppConfig, error) {
	// Only load a .env file in local development. In containers
	// (GIN_MODE=release), configuration arrives as real environment variables.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("WARNING: No .env file found for local development.")
		}
	}

	cfg := &AppConfig{
		GeminiAPIKey:      firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY")),
		ModelName:         firstNonEmpty(os.Getenv("GEMINI_MODEL"), "gemini-2.5-flash"),
		ToolServerBaseURL: os.Getenv("S2_BASE_URL"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		Port:              firstNonEmpty(os.Getenv("PORT"), "8000"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),

		TokenTTL:        60 * time.Second,
		ToolTimeout:     30 * time.Second,
		CacheTTL:        10 * time.Minute,
		MaxOutputTokens: 4096,
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY / GOOGLE_API_KEY environment variable is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	if cfg.ToolServerBaseURL == "" {
		return nil, fmt.Errorf("S2_BASE_URL environment variable is not set")
	}

	if err := applyTunables(cfg, tunablesFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyTunables overlays config.yaml onto the defaults when the file exists.
func applyTunables(cfg *AppConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("WARNING: No %s found, using built-in defaults.", path)
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var t tunables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if t.Token.TTLSeconds > 0 {
		cfg.TokenTTL = time.Duration(t.Token.TTLSeconds) * time.Second
	}
	if t.ToolServer.TimeoutSeconds > 0 {
		cfg.ToolTimeout = time.Duration(t.ToolServer.TimeoutSeconds) * time.Second
	}
	if t.Cache.TTLSeconds > 0 {
		cfg.CacheTTL = time.Duration(t.Cache.TTLSeconds) * time.Second
	}
	if t.Model.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = t.Model.MaxOutputTokens
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
