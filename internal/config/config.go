package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	APIURL         string        // JIRANIMO_API_URL (default "http://localhost:3000/jira")
	APIToken       string        // JIRANIMO_API_TOKEN (optional, bearer token for the tracker backend)
	HTTPAddr       string        // JIRANIMO_HTTP_ADDR (default ":8080")
	AuthToken      string        // JIRANIMO_AUTH_TOKEN (optional, empty = auth disabled)
	NATSURL        string        // JIRANIMO_NATS_URL (optional, empty = no external events)
	DatabaseURL    string        // JIRANIMO_DATABASE_URL (optional, postgres journal)
	JournalPath    string        // JIRANIMO_JOURNAL_PATH (optional, sqlite journal; ignored when DatabaseURL is set)
	ColumnsFile    string        // JIRANIMO_COLUMNS_FILE (optional, TOML or YAML board columns)
	UpdateTimeout  time.Duration // JIRANIMO_UPDATE_TIMEOUT (default 30s)
	ReloadInterval time.Duration // JIRANIMO_RELOAD_INTERVAL (default 0 = disabled)

	// Sync settings
	SyncInterval   time.Duration // JIRANIMO_SYNC_INTERVAL (default 0 = disabled)
	SyncS3Bucket   string        // JIRANIMO_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // JIRANIMO_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // JIRANIMO_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // JIRANIMO_SYNC_S3_KEY (default "jiranimo/snapshot.jsonl")
	SyncGitRepo    string        // JIRANIMO_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // JIRANIMO_SYNC_GIT_FILE (default "jiranimo.jsonl")
	SyncGitBranch  string        // JIRANIMO_SYNC_GIT_BRANCH (default "main")
}

func Load() (*Config, error) {
	c := &Config{
		APIURL:         envOrDefault("JIRANIMO_API_URL", "http://localhost:3000/jira"),
		APIToken:       os.Getenv("JIRANIMO_API_TOKEN"),
		HTTPAddr:       envOrDefault("JIRANIMO_HTTP_ADDR", ":8080"),
		AuthToken:      os.Getenv("JIRANIMO_AUTH_TOKEN"),
		NATSURL:        os.Getenv("JIRANIMO_NATS_URL"),
		DatabaseURL:    os.Getenv("JIRANIMO_DATABASE_URL"),
		JournalPath:    os.Getenv("JIRANIMO_JOURNAL_PATH"),
		ColumnsFile:    os.Getenv("JIRANIMO_COLUMNS_FILE"),
		SyncS3Bucket:   os.Getenv("JIRANIMO_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("JIRANIMO_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("JIRANIMO_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("JIRANIMO_SYNC_S3_KEY", "jiranimo/snapshot.jsonl"),
		SyncGitRepo:    os.Getenv("JIRANIMO_SYNC_GIT_REPO"),
		SyncGitFile:    envOrDefault("JIRANIMO_SYNC_GIT_FILE", "jiranimo.jsonl"),
		SyncGitBranch:  envOrDefault("JIRANIMO_SYNC_GIT_BRANCH", "main"),
	}

	for _, d := range []struct {
		key      string
		fallback string
		dst      *time.Duration
	}{
		{"JIRANIMO_UPDATE_TIMEOUT", "30s", &c.UpdateTimeout},
		{"JIRANIMO_RELOAD_INTERVAL", "0", &c.ReloadInterval},
		{"JIRANIMO_SYNC_INTERVAL", "0", &c.SyncInterval},
	} {
		v, err := time.ParseDuration(envOrDefault(d.key, d.fallback))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.key, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("%s: must not be negative, got %s", d.key, v)
		}
		*d.dst = v
	}
	if c.UpdateTimeout == 0 {
		return nil, fmt.Errorf("JIRANIMO_UPDATE_TIMEOUT: must be positive")
	}

	return c, nil
}

// SyncEnabled reports whether a sync destination is configured and the
// interval is positive.
func (c *Config) SyncEnabled() bool {
	return c.SyncInterval > 0 && (c.SyncS3Bucket != "" || c.SyncGitRepo != "")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
