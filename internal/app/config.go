package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/neurobridge-credentials/internal/modules/certification/coordinator"
	"github.com/yungbote/neurobridge-credentials/internal/modules/certification/render"
	"github.com/yungbote/neurobridge-credentials/internal/platform/envutil"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

const serviceName = "neurobridge-credentials"

type Config struct {
	HTTPAddr    string
	LogMode     string
	Environment string
	Version     string
	CORSOrigins []string

	JWTSecretKey   string
	AccessTokenTTL time.Duration
	OpsToken       string

	PostgresDSN string

	Coordinator     coordinator.Config
	JanitorInterval time.Duration
	Branding        render.Branding
}

// fileConfig is the optional YAML overlay named by CONFIG_FILE. Zero values leave
// the environment setting in place.
type fileConfig struct {
	Certificates struct {
		CacheTTLSeconds        *int   `yaml:"cache_ttl_seconds"`
		InFlightTimeoutSeconds *int   `yaml:"inflight_timeout_seconds"`
		JanitorIntervalSeconds *int   `yaml:"janitor_interval_seconds"`
		ValidityDays           *int   `yaml:"validity_days"`
		VerifyBaseURL          string `yaml:"verify_base_url"`
	} `yaml:"certificates"`
	Branding render.Branding `yaml:"branding"`
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cc := coordinator.DefaultConfig()
	// Zero is a valid TTL: results are never served from memory.
	if n := envutil.Int("CERT_CACHE_TTL_SECONDS", -1); n >= 0 {
		cc.TTL = time.Duration(n) * time.Second
	}
	cc.InFlightTimeout = envutil.Seconds("CERT_INFLIGHT_TIMEOUT_SECONDS", cc.InFlightTimeout)
	cc.NotifyTimeout = envutil.Seconds("CERT_NOTIFY_TIMEOUT_SECONDS", cc.NotifyTimeout)
	cc.CredentialValidity = days(envutil.Int("CREDENTIAL_VALIDITY_DAYS", 0))
	cc.VerifyBaseURL = envutil.String("PUBLIC_VERIFY_BASE_URL", "https://neurobridge.app/verify")

	cfg := Config{
		HTTPAddr:       envutil.String("HTTP_ADDR", ":8080"),
		LogMode:        envutil.String("LOG_MODE", "development"),
		Environment:    envutil.String("APP_ENV", "development"),
		Version:        envutil.String("APP_VERSION", "dev"),
		CORSOrigins:    splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", ""),
		AccessTokenTTL: envutil.Seconds("ACCESS_TOKEN_TTL", time.Hour),
		OpsToken:       envutil.String("OPS_API_TOKEN", ""),

		Coordinator:     cc,
		JanitorInterval: envutil.Seconds("CERT_JANITOR_INTERVAL_SECONDS", 15*time.Second),
		Branding:        render.DefaultBranding(),
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := cfg.applyYAML(raw); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
		if log != nil {
			log.Info("Loaded config overlay", "path", path)
		}
	}

	if cfg.JWTSecretKey == "" {
		return Config{}, fmt.Errorf("missing env var JWT_SECRET_KEY")
	}
	return cfg, nil
}

func (cfg *Config) applyYAML(raw []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return err
	}
	c := fc.Certificates
	if c.CacheTTLSeconds != nil {
		if *c.CacheTTLSeconds < 0 {
			return fmt.Errorf("certificates.cache_ttl_seconds must not be negative")
		}
		cfg.Coordinator.TTL = time.Duration(*c.CacheTTLSeconds) * time.Second
	}
	if c.InFlightTimeoutSeconds != nil {
		if *c.InFlightTimeoutSeconds <= 0 {
			return fmt.Errorf("certificates.inflight_timeout_seconds must be positive")
		}
		cfg.Coordinator.InFlightTimeout = time.Duration(*c.InFlightTimeoutSeconds) * time.Second
	}
	if c.JanitorIntervalSeconds != nil {
		cfg.JanitorInterval = time.Duration(*c.JanitorIntervalSeconds) * time.Second
	}
	if c.ValidityDays != nil {
		cfg.Coordinator.CredentialValidity = days(*c.ValidityDays)
	}
	if v := strings.TrimSpace(c.VerifyBaseURL); v != "" {
		cfg.Coordinator.VerifyBaseURL = v
	}
	if v := strings.TrimSpace(fc.Branding.IssuerName); v != "" {
		cfg.Branding.IssuerName = v
	}
	if v := strings.TrimSpace(fc.Branding.SignatoryName); v != "" {
		cfg.Branding.SignatoryName = v
	}
	if v := strings.TrimSpace(fc.Branding.SignatoryRole); v != "" {
		cfg.Branding.SignatoryRole = v
	}
	return nil
}

func days(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * 24 * time.Hour
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
