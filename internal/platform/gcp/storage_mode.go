package gcp

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

type StorageMode string

const (
	StorageModeGCS         StorageMode = "gcs"
	StorageModeGCSEmulator StorageMode = "gcs_emulator"
)

// StorageConfig describes where certificate artifacts are written and how their
// public URLs are formed.
type StorageConfig struct {
	Mode          StorageMode
	EmulatorHost  string
	Bucket        string
	CDNDomain     string
	PublicBaseURL string
	// ModeInferred is set when no mode was given and STORAGE_EMULATOR_HOST decided it.
	ModeInferred bool
}

func (cfg StorageConfig) IsEmulator() bool {
	return cfg.Mode == StorageModeGCSEmulator
}

type ConfigErrorCode string

const (
	ConfigErrorInvalidMode         ConfigErrorCode = "invalid_mode"
	ConfigErrorMissingBucket       ConfigErrorCode = "missing_bucket"
	ConfigErrorMissingEmulatorHost ConfigErrorCode = "missing_emulator_host"
	ConfigErrorInvalidURL          ConfigErrorCode = "invalid_url"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Field string
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid storage config"
	}
	switch e.Code {
	case ConfigErrorInvalidMode:
		return fmt.Sprintf("invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q)", e.Value, StorageModeGCS, StorageModeGCSEmulator)
	case ConfigErrorMissingBucket:
		return "missing env var CERTIFICATE_GCS_BUCKET_NAME"
	case ConfigErrorMissingEmulatorHost:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST", StorageModeGCSEmulator)
	case ConfigErrorInvalidURL:
		return fmt.Sprintf("invalid %s=%q; expected an absolute URL", e.Field, e.Value)
	default:
		return "invalid storage config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func StorageConfigFromEnv() (StorageConfig, error) {
	cfg := StorageConfig{
		EmulatorHost:  strings.TrimRight(strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST")), "/"),
		Bucket:        strings.TrimSpace(os.Getenv("CERTIFICATE_GCS_BUCKET_NAME")),
		CDNDomain:     strings.TrimSpace(os.Getenv("CERTIFICATE_CDN_DOMAIN")),
		PublicBaseURL: strings.TrimRight(strings.TrimSpace(os.Getenv("OBJECT_STORAGE_PUBLIC_BASE_URL")), "/"),
	}

	rawMode := strings.TrimSpace(os.Getenv("OBJECT_STORAGE_MODE"))
	switch StorageMode(strings.ToLower(rawMode)) {
	case "":
		cfg.Mode = StorageModeGCS
		if cfg.EmulatorHost != "" {
			cfg.Mode = StorageModeGCSEmulator
			cfg.ModeInferred = true
		}
	case StorageModeGCS:
		cfg.Mode = StorageModeGCS
	case StorageModeGCSEmulator:
		cfg.Mode = StorageModeGCSEmulator
	default:
		return cfg, &ConfigError{Code: ConfigErrorInvalidMode, Field: "OBJECT_STORAGE_MODE", Value: rawMode}
	}

	return cfg, ValidateStorageConfig(cfg)
}

func ValidateStorageConfig(cfg StorageConfig) error {
	switch cfg.Mode {
	case StorageModeGCS, StorageModeGCSEmulator:
	default:
		return &ConfigError{Code: ConfigErrorInvalidMode, Field: "OBJECT_STORAGE_MODE", Value: string(cfg.Mode)}
	}
	if cfg.Bucket == "" {
		return &ConfigError{Code: ConfigErrorMissingBucket, Field: "CERTIFICATE_GCS_BUCKET_NAME"}
	}
	if cfg.PublicBaseURL != "" {
		if err := requireAbsoluteURL("OBJECT_STORAGE_PUBLIC_BASE_URL", cfg.PublicBaseURL); err != nil {
			return err
		}
	}
	if !cfg.IsEmulator() {
		return nil
	}
	if cfg.EmulatorHost == "" {
		return &ConfigError{Code: ConfigErrorMissingEmulatorHost, Field: "STORAGE_EMULATOR_HOST"}
	}
	return requireAbsoluteURL("STORAGE_EMULATOR_HOST", cfg.EmulatorHost)
}

func requireAbsoluteURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || strings.TrimSpace(u.Scheme) == "" || strings.TrimSpace(u.Host) == "" {
		return &ConfigError{Code: ConfigErrorInvalidURL, Field: field, Value: raw, Cause: err}
	}
	return nil
}
