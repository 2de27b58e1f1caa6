package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("INDEX_BACKEND", "")
	t.Setenv("SOURCE_SERVICE_ROLE_KEY", "")
	t.Setenv("MAX_UPLOAD_SIZE", "")
	t.Setenv("PUBLIC_INDEX_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Index.Backend != BackendFilesystem {
		t.Errorf("Expected filesystem backend by default, got %s", cfg.Index.Backend)
	}
	if cfg.Index.Path != "public/data/strips.json" {
		t.Errorf("Unexpected index path %s", cfg.Index.Path)
	}
	if cfg.Upload.MaxUploadSize != 50*1024*1024 {
		t.Errorf("Expected 50MB upload ceiling, got %d", cfg.Upload.MaxUploadSize)
	}
	if cfg.Source.ServiceRoleKey != PlaceholderServiceRoleKey {
		t.Errorf("Expected placeholder key, got %q", cfg.Source.ServiceRoleKey)
	}
	if cfg.Admin.SessionTTL != 12*time.Hour {
		t.Errorf("Expected 12h session ttl, got %s", cfg.Admin.SessionTTL)
	}
	if cfg.Public.IndexURL != "" {
		t.Errorf("Expected no default public index url, got %q", cfg.Public.IndexURL)
	}
}

func TestLoadGitHubBackendRequiresRepo(t *testing.T) {
	t.Setenv("INDEX_BACKEND", BackendGitHub)
	t.Setenv("GITHUB_OWNER", "")
	t.Setenv("GITHUB_REPO", "")

	if _, err := Load(); err == nil {
		t.Error("Expected error when github backend lacks owner/repo")
	}

	t.Setenv("GITHUB_OWNER", "owner")
	t.Setenv("GITHUB_REPO", "site")
	t.Setenv("GITHUB_TOKEN", "secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GitHub.Branch != "main" {
		t.Errorf("Expected default branch main, got %s", cfg.GitHub.Branch)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("INDEX_BACKEND", "s3")
	if _, err := Load(); err == nil {
		t.Error("Expected error for unknown backend")
	}
}

func TestAdminConfigValidate(t *testing.T) {
	if err := (&AdminConfig{SessionTTL: time.Hour}).Validate(); err == nil {
		t.Error("Expected error without credential")
	}
	if err := (&AdminConfig{Password: "pw", SessionTTL: time.Hour}).Validate(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := (&AdminConfig{PasswordHash: "$2a$10$abc", SessionTTL: 0}).Validate(); err == nil {
		t.Error("Expected error for zero ttl")
	}
}

func TestSourceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SourceConfig
		wantErr bool
	}{
		{"rest with url", SourceConfig{Driver: SourceDriverREST, URL: "https://x.example", Table: "comic_strips"}, false},
		{"rest without url", SourceConfig{Driver: SourceDriverREST, Table: "comic_strips"}, true},
		{"postgres with dsn", SourceConfig{Driver: SourceDriverPostgres, DSN: "postgres://", Table: "comic_strips"}, false},
		{"sqlite without dsn", SourceConfig{Driver: SourceDriverSQLite, Table: "comic_strips"}, true},
		{"unknown driver", SourceConfig{Driver: "mongo", Table: "comic_strips"}, true},
		{"missing table", SourceConfig{Driver: SourceDriverREST, URL: "https://x.example"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPublicConfigValidate(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.github.io/Porterias/data/strips.json", false},
		{"http://localhost:5173/data/strips.json", false},
		{"", true},
		{"/data/strips.json", true},
		{"ftp://example.com/strips.json", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := (&PublicConfig{IndexURL: tt.url}).Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}
