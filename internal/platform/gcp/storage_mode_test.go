package gcp

import (
	"errors"
	"testing"
)

func TestStorageConfigFromEnvDefaultGCS(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	t.Setenv("CERTIFICATE_GCS_BUCKET_NAME", "certs")
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")

	cfg, err := StorageConfigFromEnv()
	if err != nil {
		t.Fatalf("StorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != StorageModeGCS || cfg.ModeInferred {
		t.Fatalf("mode: want=%q inferred=false got=%q inferred=%v", StorageModeGCS, cfg.Mode, cfg.ModeInferred)
	}
}

func TestStorageConfigFromEnvInfersEmulator(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443/")
	t.Setenv("CERTIFICATE_GCS_BUCKET_NAME", "certs")
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")

	cfg, err := StorageConfigFromEnv()
	if err != nil {
		t.Fatalf("StorageConfigFromEnv: %v", err)
	}
	if !cfg.IsEmulator() || !cfg.ModeInferred {
		t.Fatalf("mode: want emulator inferred got=%q inferred=%v", cfg.Mode, cfg.ModeInferred)
	}
	if cfg.EmulatorHost != "http://fake-gcs:4443" {
		t.Fatalf("emulator host: want trailing slash trimmed got=%q", cfg.EmulatorHost)
	}
}

func TestStorageConfigFromEnvExplicitGCSIgnoresEmulatorHost(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "GCS")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443")
	t.Setenv("CERTIFICATE_GCS_BUCKET_NAME", "certs")
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")

	cfg, err := StorageConfigFromEnv()
	if err != nil {
		t.Fatalf("StorageConfigFromEnv: %v", err)
	}
	if cfg.IsEmulator() {
		t.Fatalf("mode: want=%q got=%q", StorageModeGCS, cfg.Mode)
	}
}

func TestStorageConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		emulator string
		bucket   string
		base     string
		want     ConfigErrorCode
	}{
		{name: "invalid mode", mode: "s3", bucket: "certs", want: ConfigErrorInvalidMode},
		{name: "missing bucket", mode: "gcs", want: ConfigErrorMissingBucket},
		{name: "emulator without host", mode: "gcs_emulator", bucket: "certs", want: ConfigErrorMissingEmulatorHost},
		{name: "emulator bad host", mode: "gcs_emulator", emulator: "fake-gcs:4443", bucket: "certs", want: ConfigErrorInvalidURL},
		{name: "bad public base", mode: "gcs", bucket: "certs", base: "localhost:4443", want: ConfigErrorInvalidURL},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("OBJECT_STORAGE_MODE", tc.mode)
			t.Setenv("STORAGE_EMULATOR_HOST", tc.emulator)
			t.Setenv("CERTIFICATE_GCS_BUCKET_NAME", tc.bucket)
			t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", tc.base)

			_, err := StorageConfigFromEnv()
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("StorageConfigFromEnv: want *ConfigError got=%v", err)
			}
			if cfgErr.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, cfgErr.Code)
			}
		})
	}
}
