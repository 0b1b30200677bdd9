package gcp

import "testing"

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  StorageConfig
		key  string
		want string
	}{
		{
			name: "gcs default",
			cfg:  StorageConfig{Mode: StorageModeGCS, Bucket: "certs"},
			key:  "certificates/u/CERT-1.png",
			want: "https://storage.googleapis.com/certs/certificates/u/CERT-1.png",
		},
		{
			name: "cdn wins",
			cfg:  StorageConfig{Mode: StorageModeGCSEmulator, Bucket: "certs", CDNDomain: "cdn.example.com", EmulatorHost: "http://fake-gcs:4443"},
			key:  "/certificates/u/CERT-1.png",
			want: "https://cdn.example.com/certificates/u/CERT-1.png",
		},
		{
			name: "public base url",
			cfg:  StorageConfig{Mode: StorageModeGCS, Bucket: "certs", PublicBaseURL: "http://localhost:4443"},
			key:  "certificates/u/CERT-1.png",
			want: "http://localhost:4443/certs/certificates/u/CERT-1.png",
		},
		{
			name: "emulator media endpoint",
			cfg:  StorageConfig{Mode: StorageModeGCSEmulator, Bucket: "certs", EmulatorHost: "http://fake-gcs:4443"},
			key:  "certificates/u/CERT-1.png",
			want: "http://fake-gcs:4443/storage/v1/b/certs/o/certificates%2Fu%2FCERT-1.png?alt=media",
		},
		{
			name: "emulator prefers public base",
			cfg:  StorageConfig{Mode: StorageModeGCSEmulator, Bucket: "certs", EmulatorHost: "http://fake-gcs:4443", PublicBaseURL: "http://localhost:4443"},
			key:  "certificates/u/CERT-1.png",
			want: "http://localhost:4443/storage/v1/b/certs/o/certificates%2Fu%2FCERT-1.png?alt=media",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := publicURL(tc.cfg, tc.key); got != tc.want {
				t.Fatalf("publicURL: want=%q got=%q", tc.want, got)
			}
		})
	}
}

func TestContentTypeForKey(t *testing.T) {
	cases := map[string]string{
		"certificates/a.png":      "image/png",
		"certificates/a.PDF":      "application/pdf",
		"certificates/a.png?x=1":  "image/png",
		"certificates/a.bin":      "application/octet-stream",
		"/certificates/meta.json": "application/json",
	}
	for key, want := range cases {
		if got := contentTypeForKey(key); got != want {
			t.Fatalf("contentTypeForKey(%q): want=%q got=%q", key, want, got)
		}
	}
}
