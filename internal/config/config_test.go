package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cesargomez89/topalbums/internal/constants"
	"github.com/cesargomez89/topalbums/internal/domain"
)

func validConfig() Config {
	return Config{
		Port:          "8080",
		DBDriver:      "sqlite",
		DBDSN:         "test.db",
		SiteAddress:   "https://www.metacritic.com",
		LogLevel:      "info",
		LogFormat:     "text",
		ScrapeWorkers: 4,
		LockTTL:       time.Minute,
	}
}

func TestLoad(t *testing.T) {
	cfg := Load()

	if cfg.Port != constants.DefaultPort {
		t.Errorf("Expected Port to be %s, got %s", constants.DefaultPort, cfg.Port)
	}

	if cfg.DBDSN != constants.DefaultDBDSN {
		t.Errorf("Expected DBDSN to be %s, got %s", constants.DefaultDBDSN, cfg.DBDSN)
	}

	if cfg.DBDriver != constants.DriverSQLite {
		t.Errorf("Expected DBDriver to be %s, got %s", constants.DriverSQLite, cfg.DBDriver)
	}

	if cfg.RequestInterval != constants.DefaultRequestInterval {
		t.Errorf("Expected RequestInterval to be %v, got %v", constants.DefaultRequestInterval, cfg.RequestInterval)
	}

	if cfg.RefreshArtistStats {
		t.Error("Expected RefreshArtistStats to default to false")
	}

	if cfg.SpotifyEnabled() {
		t.Error("Expected Spotify to be disabled without credentials")
	}
}

func TestLoadWithEnvVars(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://localhost/topalbums")
	t.Setenv("SITE_ADDRESS", "http://example.com/")
	t.Setenv("CACHE_TTL", "1h")
	t.Setenv("SCRAPE_WORKERS", "8")
	t.Setenv("REFRESH_ARTIST_STATS", "true")
	t.Setenv("SPOTIFY_CLIENT_ID", "id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")
	t.Setenv("SCHEDULE", "year:2022:meta_score, all:all:user_score")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Expected Port to be 9090, got %s", cfg.Port)
	}
	if cfg.DBDriver != "postgres" {
		t.Errorf("Expected DBDriver to be postgres, got %s", cfg.DBDriver)
	}
	if cfg.SiteAddress != "http://example.com" {
		t.Errorf("Expected trailing slash to be trimmed, got %s", cfg.SiteAddress)
	}
	if cfg.CacheTTL != time.Hour {
		t.Errorf("Expected CacheTTL to be 1h, got %v", cfg.CacheTTL)
	}
	if cfg.ScrapeWorkers != 8 {
		t.Errorf("Expected ScrapeWorkers to be 8, got %d", cfg.ScrapeWorkers)
	}
	if !cfg.RefreshArtistStats {
		t.Error("Expected RefreshArtistStats to be true")
	}
	if !cfg.SpotifyEnabled() {
		t.Error("Expected Spotify to be enabled")
	}
	if len(cfg.Schedule) != 2 {
		t.Fatalf("Expected 2 scheduled charts, got %d", len(cfg.Schedule))
	}
	if cfg.Schedule[1] != (domain.ChartKey{Filter: "all", Year: 0, Sort: "user_score"}) {
		t.Errorf("Unexpected second schedule entry: %+v", cfg.Schedule[1])
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestLoadReportsParseErrors(t *testing.T) {
	t.Setenv("CACHE_TTL", "forever")
	t.Setenv("SCRAPE_WORKERS", "many")

	cfg := Load()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation error for unparsable values")
	}
	if !strings.Contains(err.Error(), "CACHE_TTL") || !strings.Contains(err.Error(), "SCRAPE_WORKERS") {
		t.Errorf("Expected both bad keys in error, got %v", err)
	}
	if cfg.CacheTTL != constants.DefaultCacheTTL {
		t.Errorf("Expected fallback CacheTTL, got %v", cfg.CacheTTL)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("LOG_LEVEL=debug\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel from env file to be debug, got %s", cfg.LogLevel)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("Expected missing env file to be ignored, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"invalid port - not a number", func(c *Config) { c.Port = "abc" }, true},
		{"invalid port - out of range", func(c *Config) { c.Port = "99999" }, true},
		{"empty port", func(c *Config) { c.Port = "" }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"empty dsn", func(c *Config) { c.DBDSN = "" }, true},
		{"relative site address", func(c *Config) { c.SiteAddress = "metacritic" }, true},
		{"spotify id without secret", func(c *Config) { c.SpotifyClientID = "id" }, true},
		{"zero workers", func(c *Config) { c.ScrapeWorkers = 0 }, true},
		{"zero lock ttl", func(c *Config) { c.LockTTL = 0 }, true},
		{"invalid log level", func(c *Config) { c.LogLevel = "invalid" }, true},
		{"invalid log format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"schedule without interval", func(c *Config) {
			c.Schedule = []domain.ChartKey{{Filter: "year", Year: 2022, Sort: "meta_score"}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseSchedule(t *testing.T) {
	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		raw     string
		want    []domain.ChartKey
		wantErr bool
	}{
		{"year:2022:meta_score", []domain.ChartKey{{Filter: "year", Year: 2022, Sort: "meta_score"}}, false},
		{"year:2022:meta_score,year:2023:meta_score,", []domain.ChartKey{
			{Filter: "year", Year: 2022, Sort: "meta_score"},
			{Filter: "year", Year: 2023, Sort: "meta_score"},
		}, false},
		{"all:0:user_score", []domain.ChartKey{{Filter: "all", Sort: "user_score"}}, false},
		{"all:2022:meta_score", []domain.ChartKey{{Filter: "all", Sort: "meta_score"}}, false},
		{"90day:2010:user_score", []domain.ChartKey{{Filter: "90day", Sort: "user_score"}}, false},
		{"year:all:meta_score", []domain.ChartKey{{Filter: "year", Year: 2024, Sort: "meta_score"}}, false},
		{"all:2022:meta_score,all:all:meta_score", []domain.ChartKey{{Filter: "all", Sort: "meta_score"}}, false},
		{"year:2022", nil, true},
		{"year:twenty:meta_score", nil, true},
		{":2022:meta_score", nil, true},
		{"year:2022:bogus", nil, true},
		{"weird:2022:meta_score", nil, true},
		{"year:1990:meta_score", nil, true},
		{"year:2030:meta_score", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			keys, err := ParseSchedule(tt.raw, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSchedule(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if len(keys) != len(tt.want) {
				t.Fatalf("Expected %d keys, got %v", len(tt.want), keys)
			}
			for i := range keys {
				if keys[i] != tt.want[i] {
					t.Errorf("key %d = %+v, want %+v", i, keys[i], tt.want[i])
				}
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "test_value")

	value := getEnv("TEST_VAR", "default")
	if value != "test_value" {
		t.Errorf("Expected 'test_value', got '%s'", value)
	}

	value = getEnv("NON_EXISTENT_VAR", "default")
	if value != "default" {
		t.Errorf("Expected 'default', got '%s'", value)
	}
}
