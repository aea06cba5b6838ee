package config

import (
	"testing"
	"time"
)

// allEnvVars lists every variable Load reads; they are cleared between tests.
var allEnvVars = []string{
	"JIRANIMO_API_URL", "JIRANIMO_API_TOKEN", "JIRANIMO_HTTP_ADDR", "JIRANIMO_AUTH_TOKEN",
	"JIRANIMO_NATS_URL", "JIRANIMO_DATABASE_URL", "JIRANIMO_JOURNAL_PATH", "JIRANIMO_COLUMNS_FILE",
	"JIRANIMO_UPDATE_TIMEOUT", "JIRANIMO_RELOAD_INTERVAL",
	"JIRANIMO_SYNC_INTERVAL", "JIRANIMO_SYNC_S3_BUCKET", "JIRANIMO_SYNC_S3_ENDPOINT",
	"JIRANIMO_SYNC_S3_REGION", "JIRANIMO_SYNC_S3_KEY", "JIRANIMO_SYNC_GIT_REPO",
	"JIRANIMO_SYNC_GIT_FILE", "JIRANIMO_SYNC_GIT_BRANCH",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name         string
		env          map[string]string
		wantErr      bool
		wantAPIURL   string
		wantHTTPAddr string
		wantNATSURL  string
		wantTimeout  time.Duration
		wantReload   time.Duration
	}{
		{
			name:         "Defaults",
			env:          map[string]string{},
			wantAPIURL:   "http://localhost:3000/jira",
			wantHTTPAddr: ":8080",
			wantTimeout:  30 * time.Second,
		},
		{
			name: "Custom",
			env: map[string]string{
				"JIRANIMO_API_URL":         "https://tracker.example.com/api",
				"JIRANIMO_HTTP_ADDR":       ":3000",
				"JIRANIMO_NATS_URL":        "nats://localhost:4222",
				"JIRANIMO_UPDATE_TIMEOUT":  "5s",
				"JIRANIMO_RELOAD_INTERVAL": "2m",
			},
			wantAPIURL:   "https://tracker.example.com/api",
			wantHTTPAddr: ":3000",
			wantNATSURL:  "nats://localhost:4222",
			wantTimeout:  5 * time.Second,
			wantReload:   2 * time.Minute,
		},
		{
			name:    "InvalidTimeout",
			env:     map[string]string{"JIRANIMO_UPDATE_TIMEOUT": "soon"},
			wantErr: true,
		},
		{
			name:    "ZeroTimeout",
			env:     map[string]string{"JIRANIMO_UPDATE_TIMEOUT": "0s"},
			wantErr: true,
		},
		{
			name:    "NegativeReload",
			env:     map[string]string{"JIRANIMO_RELOAD_INTERVAL": "-1m"},
			wantErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.APIURL != tc.wantAPIURL {
				t.Errorf("APIURL = %q, want %q", cfg.APIURL, tc.wantAPIURL)
			}
			if cfg.HTTPAddr != tc.wantHTTPAddr {
				t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, tc.wantHTTPAddr)
			}
			if cfg.NATSURL != tc.wantNATSURL {
				t.Errorf("NATSURL = %q, want %q", cfg.NATSURL, tc.wantNATSURL)
			}
			if cfg.UpdateTimeout != tc.wantTimeout {
				t.Errorf("UpdateTimeout = %v, want %v", cfg.UpdateTimeout, tc.wantTimeout)
			}
			if cfg.ReloadInterval != tc.wantReload {
				t.Errorf("ReloadInterval = %v, want %v", cfg.ReloadInterval, tc.wantReload)
			}
		})
	}
}

func TestLoadSyncDefaults(t *testing.T) {
	clearAllEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SyncInterval != 0 {
		t.Errorf("SyncInterval = %v, want 0", cfg.SyncInterval)
	}
	if cfg.SyncEnabled() {
		t.Error("sync should be disabled by default")
	}
	if cfg.SyncS3Region != "us-east-1" {
		t.Errorf("SyncS3Region = %q, want %q", cfg.SyncS3Region, "us-east-1")
	}
	if cfg.SyncS3Key != "jiranimo/snapshot.jsonl" {
		t.Errorf("SyncS3Key = %q, want %q", cfg.SyncS3Key, "jiranimo/snapshot.jsonl")
	}
	if cfg.SyncGitFile != "jiranimo.jsonl" {
		t.Errorf("SyncGitFile = %q, want %q", cfg.SyncGitFile, "jiranimo.jsonl")
	}
	if cfg.SyncGitBranch != "main" {
		t.Errorf("SyncGitBranch = %q, want %q", cfg.SyncGitBranch, "main")
	}
}

func TestLoadSyncCustom(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("JIRANIMO_SYNC_INTERVAL", "10m")
	t.Setenv("JIRANIMO_SYNC_S3_BUCKET", "my-bucket")
	t.Setenv("JIRANIMO_SYNC_S3_ENDPOINT", "http://minio:9000")
	t.Setenv("JIRANIMO_SYNC_S3_REGION", "eu-west-1")
	t.Setenv("JIRANIMO_SYNC_S3_KEY", "custom/key.jsonl")
	t.Setenv("JIRANIMO_SYNC_GIT_REPO", "/tmp/repo")
	t.Setenv("JIRANIMO_SYNC_GIT_FILE", "custom.jsonl")
	t.Setenv("JIRANIMO_SYNC_GIT_BRANCH", "backup")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SyncInterval != 10*time.Minute {
		t.Errorf("SyncInterval = %v, want 10m", cfg.SyncInterval)
	}
	if !cfg.SyncEnabled() {
		t.Error("SyncEnabled = false, want true")
	}
	if cfg.SyncS3Bucket != "my-bucket" {
		t.Errorf("SyncS3Bucket = %q", cfg.SyncS3Bucket)
	}
	if cfg.SyncS3Endpoint != "http://minio:9000" {
		t.Errorf("SyncS3Endpoint = %q", cfg.SyncS3Endpoint)
	}
	if cfg.SyncS3Region != "eu-west-1" {
		t.Errorf("SyncS3Region = %q", cfg.SyncS3Region)
	}
	if cfg.SyncS3Key != "custom/key.jsonl" {
		t.Errorf("SyncS3Key = %q", cfg.SyncS3Key)
	}
	if cfg.SyncGitRepo != "/tmp/repo" {
		t.Errorf("SyncGitRepo = %q", cfg.SyncGitRepo)
	}
	if cfg.SyncGitFile != "custom.jsonl" {
		t.Errorf("SyncGitFile = %q", cfg.SyncGitFile)
	}
	if cfg.SyncGitBranch != "backup" {
		t.Errorf("SyncGitBranch = %q", cfg.SyncGitBranch)
	}
}

func TestLoadSyncInvalidInterval(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("JIRANIMO_SYNC_INTERVAL", "not-a-duration")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid JIRANIMO_SYNC_INTERVAL")
	}
}

func TestLoadJournal(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("JIRANIMO_DATABASE_URL", "postgres://localhost/jiranimo")
	t.Setenv("JIRANIMO_JOURNAL_PATH", "/var/lib/jiranimo/journal.db")
	t.Setenv("JIRANIMO_COLUMNS_FILE", "columns.toml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatabaseURL != "postgres://localhost/jiranimo" || cfg.JournalPath != "/var/lib/jiranimo/journal.db" {
		t.Errorf("journal settings = %q / %q", cfg.DatabaseURL, cfg.JournalPath)
	}
	if cfg.ColumnsFile != "columns.toml" {
		t.Errorf("ColumnsFile = %q", cfg.ColumnsFile)
	}
}

func TestEnvOrDefault(t *testing.T) {
	for _, tc := range []struct {
		name     string
		key      string
		envVal   string
		fallback string
		want     string
	}{
		{"EmptyUsesDefault", "TEST_ENVDEFAULT_EMPTY", "", "default-val", "default-val"},
		{"SetUsesEnv", "TEST_ENVDEFAULT_SET", "custom", "default-val", "custom"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.envVal)
			got := envOrDefault(tc.key, tc.fallback)
			if got != tc.want {
				t.Errorf("envOrDefault(%q, %q) = %q, want %q", tc.key, tc.fallback, got, tc.want)
			}
		})
	}
}
