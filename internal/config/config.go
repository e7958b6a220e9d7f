package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"
)

var defaultCities = []string{"Ciudad de México", "Guadalajara", "Monterrey", "Cancún", "Tijuana"}

type Config struct {
	HTTPPort    string
	LogLevel    string
	Environment string

	BackendURL     string
	GeocodeURL     string
	RequestTimeout time.Duration

	DatabaseURL   string
	SessionSecret string
	SessionTTL    time.Duration
	SessionStore  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	WizardFile    string
	WizardIdleTTL time.Duration
	Cities        []string

	OTLPEndpoint string
	OTLPInsecure bool
}

// wizardFile is the optional YAML overlay for wizard copy.
type wizardFile struct {
	Cities []string `yaml:"cities"`
}

// LoadConfig reads .env (when present) and the process environment.
// The returned bool reports whether a .env file was loaded.
func LoadConfig() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	cfg := &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		LogLevel:    strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),
		Environment: getEnv("APP_ENV", "development"),

		BackendURL:     strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:5000"), "/"),
		GeocodeURL:     strings.TrimRight(getEnv("GEOCODE_URL", "https://geocode.xyz"), "/"),
		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),

		DatabaseURL:   getEnv("DATABASE_URL", "provider_assistant.db"),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		SessionStore:  strings.ToLower(getEnv("SESSION_STORE", "sqlite")),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		WizardFile:    getEnv("WIZARD_FILE", ""),
		WizardIdleTTL: getEnvAsDuration("WIZARD_IDLE_TTL", 30*time.Minute),
		Cities:        append([]string(nil), defaultCities...),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure: getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", false),
	}

	if cfg.WizardFile != "" {
		if err := cfg.loadWizardFile(cfg.WizardFile); err != nil {
			return nil, dotenv, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, dotenv, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, dotenv, nil
}

func (c *Config) loadWizardFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read wizard file %s: %w", path, err)
	}
	var wf wizardFile
	if err := yaml.Unmarshal(raw, &wf); err != nil {
		return fmt.Errorf("failed to parse wizard file %s: %w", path, err)
	}

	cities := make([]string, 0, len(wf.Cities))
	for _, city := range wf.Cities {
		if city = strings.TrimSpace(city); city != "" {
			cities = append(cities, city)
		}
	}
	if len(cities) > 0 {
		c.Cities = cities
	}
	return nil
}

// Validate checks required settings and enumerated values.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET environment variable is required")
	}
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL cannot be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be > 0")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	switch c.SessionStore {
	case "sqlite":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL cannot be empty")
		}
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR cannot be empty when SESSION_STORE=redis")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be sqlite or redis, got %q", c.SessionStore)
	}
	if len(c.Cities) == 0 {
		return fmt.Errorf("at least one candidate city is required")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(strings.TrimSpace(valueStr)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(getEnv(key, ""))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	return defaultValue
}
