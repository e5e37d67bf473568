package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
portal:
  base_url: https://planningapps.example.gov.uk
  council: Leeds
  actor_id: ops-bot
  user_agent: custom-agent
  timeout_seconds: 45
  request_interval_ms: 1500
  results_per_page: 50
  decided_keyword: DC_AllDecisions
store:
  provider: mongo
  uri: mongodb://localhost:27017
  database: planning_test
  collection: cases_test
storage:
  provider: gcs
  gcs_bucket: case-docs
logging:
  development: false
metrics:
  enabled: true
  addr: ":2112"
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Portal.BaseURL != "https://planningapps.example.gov.uk" {
		t.Fatalf("expected base url override, got %q", cfg.Portal.BaseURL)
	}
	if cfg.Portal.Council != "Leeds" || cfg.Portal.ActorID != "ops-bot" {
		t.Fatalf("expected portal identity overrides to apply")
	}
	if cfg.Portal.ResultsPerPage != 50 {
		t.Fatalf("expected results_per_page 50, got %d", cfg.Portal.ResultsPerPage)
	}
	// Overridden keyword sticks, untouched keyword keeps its default.
	if cfg.Portal.DecidedKeyword != "DC_AllDecisions" {
		t.Fatalf("expected decided keyword override, got %q", cfg.Portal.DecidedKeyword)
	}
	if cfg.Portal.ValidatedKeyword != "DC_Validated" {
		t.Fatalf("expected default validated keyword, got %q", cfg.Portal.ValidatedKeyword)
	}
	if cfg.Store.URI != "mongodb://localhost:27017" || cfg.Store.Database != "planning_test" {
		t.Fatalf("expected store overrides to apply: %+v", cfg.Store)
	}
	if cfg.Storage.GCSBucket != "case-docs" {
		t.Fatalf("expected bucket override, got %q", cfg.Storage.GCSBucket)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Addr != ":2112" {
		t.Fatalf("expected metrics overrides to apply: %+v", cfg.Metrics)
	}
	if got := cfg.RequestTimeout(); got != 45*time.Second {
		t.Fatalf("expected request timeout 45s, got %v", got)
	}
	if got := cfg.RequestInterval(); got != 1500*time.Millisecond {
		t.Fatalf("expected request interval 1.5s, got %v", got)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Portal: PortalConfig{
			BaseURL:        "https://planningapps.example.gov.uk",
			Council:        "Leeds",
			TimeoutSeconds: 30,
			ResultsPerPage: 100,
		},
		Store:   StoreConfig{Provider: "mongo", URI: "mongodb://localhost:27017"},
		Storage: StorageConfig{Provider: "gcs", GCSBucket: "case-docs"},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "missing base url",
			cfg: func() Config {
				c := base
				c.Portal.BaseURL = ""
				return c
			}(),
			want: "portal.base_url",
		},
		{
			name: "missing council",
			cfg: func() Config {
				c := base
				c.Portal.Council = ""
				return c
			}(),
			want: "portal.council",
		},
		{
			name: "invalid timeout",
			cfg: func() Config {
				c := base
				c.Portal.TimeoutSeconds = 0
				return c
			}(),
			want: "portal.timeout_seconds",
		},
		{
			name: "invalid page size",
			cfg: func() Config {
				c := base
				c.Portal.ResultsPerPage = 0
				return c
			}(),
			want: "portal.results_per_page",
		},
		{
			name: "mongo missing uri",
			cfg: func() Config {
				c := base
				c.Store.URI = ""
				return c
			}(),
			want: "store.uri",
		},
		{
			name: "unknown store provider",
			cfg: func() Config {
				c := base
				c.Store.Provider = "dynamo"
				return c
			}(),
			want: "store.provider",
		},
		{
			name: "gcs missing bucket",
			cfg: func() Config {
				c := base
				c.Storage.GCSBucket = ""
				return c
			}(),
			want: "storage.gcs_bucket",
		},
		{
			name: "unknown storage provider",
			cfg: func() Config {
				c := base
				c.Storage.Provider = "s3"
				return c
			}(),
			want: "storage.provider",
		},
		{
			name: "metrics missing addr",
			cfg: func() Config {
				c := base
				c.Metrics.Enabled = true
				return c
			}(),
			want: "metrics.addr",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadDefaultsOnly(t *testing.T) {
	t.Setenv("CRAWLER_PORTAL_BASE_URL", "https://planningapps.example.gov.uk")
	t.Setenv("CRAWLER_PORTAL_COUNCIL", "Leeds")
	t.Setenv("CRAWLER_STORE_URI", "mongodb://localhost:27017")
	t.Setenv("CRAWLER_STORAGE_GCS_BUCKET", "case-docs")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Portal.ListingPath != "/online-applications/search.do?action=weeklyList" {
		t.Fatalf("expected default listing path, got %q", cfg.Portal.ListingPath)
	}
	if cfg.Store.Provider != "mongo" || cfg.Store.Database != "planning" {
		t.Fatalf("expected mongo defaults, got %+v", cfg.Store)
	}
	if cfg.Portal.RequestIntervalMs != 1000 {
		t.Fatalf("expected default request interval, got %d", cfg.Portal.RequestIntervalMs)
	}
}
