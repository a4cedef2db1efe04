// Package config loads service settings from the environment, an optional
// .env file and defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultFXURL       = "https://api.exchangerate.host/latest?base=USD&symbols=EUR"
	DefaultFunFactURL  = "https://catfact.ninja/fact"
	DefaultDatabaseURL = "sqlite://./leads.db"
)

// Config holds every runtime setting.
type Config struct {
	Port           string
	DatabaseURL    string
	LogLevel       string
	MetricsEnabled bool
	CORSOrigins    []string
	// OTLPEndpoint receives spans over OTLP/gRPC. Empty disables export.
	OTLPEndpoint   string

	Phone      PhoneConfig
	Enrichment EnrichmentConfig
	Cache      CacheConfig
	Firebase   FirebaseConfig

	// ListAuth requires a Firebase ID token on GET /v1/leads.
	ListAuth bool
}

type PhoneConfig struct {
	DefaultRegion string
}

// EnrichmentConfig configures the exchange-rate and fun-fact fetches.
type EnrichmentConfig struct {
	FXURL           string
	FunFactURL      string
	FunFactMaxChars int
	Timeout         time.Duration // per attempt
	MaxAttempts     int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	RateLimit       float64 // requests per second per service, 0 disables limiting
}

type CacheConfig struct {
	RedisURL string
	FXTTL    time.Duration
}

type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// Load reads .env files (missing files are ignored) and the process
// environment into a validated Config.
func Load(envFiles ...string) (*Config, error) {
	if err := LoadDotEnv(envFiles...); err != nil {
		return nil, err
	}
	return LoadWith(viper.New())
}

// LoadWith reads settings through v, which callers may have pre-bound to
// command-line flags.
func LoadWith(v *viper.Viper) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:           v.GetString("port"),
		DatabaseURL:    v.GetString("database_url"),
		LogLevel:       v.GetString("log_level"),
		MetricsEnabled: v.GetBool("metrics_enabled"),
		CORSOrigins:    splitList(v.GetString("cors_allowed_origins")),
		OTLPEndpoint:   v.GetString("otel_exporter_otlp_endpoint"),
		Phone: PhoneConfig{
			DefaultRegion: strings.ToUpper(v.GetString("default_phone_region")),
		},
		Enrichment: EnrichmentConfig{
			FXURL:           v.GetString("fx_api_url"),
			FunFactURL:      v.GetString("fun_fact_api_url"),
			FunFactMaxChars: v.GetInt("fun_fact_max_chars"),
			Timeout:         v.GetDuration("enrichment_timeout"),
			MaxAttempts:     v.GetInt("enrichment_max_attempts"),
			BaseDelay:       v.GetDuration("enrichment_base_delay"),
			MaxDelay:        v.GetDuration("enrichment_max_delay"),
			RateLimit:       v.GetFloat64("enrichment_rate_limit"),
		},
		Cache: CacheConfig{
			RedisURL: v.GetString("redis_url"),
			FXTTL:    v.GetDuration("fx_cache_ttl"),
		},
		Firebase: FirebaseConfig{
			ProjectID:       v.GetString("firebase_project_id"),
			CredentialsFile: v.GetString("google_application_credentials"),
		},
		ListAuth: v.GetBool("list_auth"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("database_url", DefaultDatabaseURL)
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("cors_allowed_origins", "")
	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("default_phone_region", "US")
	v.SetDefault("fx_api_url", DefaultFXURL)
	v.SetDefault("fun_fact_api_url", DefaultFunFactURL)
	v.SetDefault("fun_fact_max_chars", 80)
	v.SetDefault("enrichment_timeout", 5*time.Second)
	v.SetDefault("enrichment_max_attempts", 3)
	v.SetDefault("enrichment_base_delay", time.Second)
	v.SetDefault("enrichment_max_delay", 4*time.Second)
	v.SetDefault("enrichment_rate_limit", 0.0)
	v.SetDefault("redis_url", "")
	v.SetDefault("fx_cache_ttl", 10*time.Minute)
	v.SetDefault("firebase_project_id", "")
	v.SetDefault("google_application_credentials", "")
	v.SetDefault("list_auth", false)
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL must not be empty"))
	}
	if len(c.Phone.DefaultRegion) != 2 {
		errs = append(errs, fmt.Errorf("DEFAULT_PHONE_REGION must be a two-letter region code, got %q", c.Phone.DefaultRegion))
	}
	e := c.Enrichment
	if e.MaxAttempts < 1 {
		errs = append(errs, errors.New("ENRICHMENT_MAX_ATTEMPTS must be at least 1"))
	}
	if e.Timeout <= 0 {
		errs = append(errs, errors.New("ENRICHMENT_TIMEOUT must be positive"))
	}
	if e.BaseDelay <= 0 || e.MaxDelay < e.BaseDelay {
		errs = append(errs, errors.New("ENRICHMENT_BASE_DELAY must be positive and not exceed ENRICHMENT_MAX_DELAY"))
	}
	if e.FunFactMaxChars <= 0 {
		errs = append(errs, errors.New("FUN_FACT_MAX_CHARS must be positive"))
	}
	if e.RateLimit < 0 {
		errs = append(errs, errors.New("ENRICHMENT_RATE_LIMIT must not be negative"))
	}
	if c.ListAuth && c.Firebase.ProjectID == "" {
		errs = append(errs, errors.New("LIST_AUTH requires FIREBASE_PROJECT_ID"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are skipped and variables already set are kept.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// Existing environment variables win over file values.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
