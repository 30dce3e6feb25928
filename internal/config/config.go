package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/cesargomez89/topalbums/internal/constants"
	"github.com/cesargomez89/topalbums/internal/domain"
)

const EnvFile = ".env"

// Config holds all application configuration
type Config struct {
	Port                string
	DBDriver            string
	DBDSN               string
	LogLevel            string
	LogFormat           string
	SiteAddress         string
	UserAgent           string
	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyTokenURL     string
	SpotifyAPIURL       string
	RedisURL            string
	DataDir             string
	Schedule            []domain.ChartKey
	RequestInterval     time.Duration
	CacheTTL            time.Duration
	LockTTL             time.Duration
	ScheduleInterval    time.Duration
	ScrapeWorkers       int
	RefreshArtistStats  bool

	// parse problems found by Load, reported by Validate
	loadErrors []string
}

// LoadFile reads an env file into the process environment and then calls Load.
// A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return Load(), nil
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	cfg := &Config{
		Port:                getEnv("PORT", constants.DefaultPort),
		DBDriver:            getEnv("DB_DRIVER", constants.DefaultDBDriver),
		DBDSN:               getEnv("DB_DSN", constants.DefaultDBDSN),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
		SiteAddress:         strings.TrimRight(getEnv("SITE_ADDRESS", constants.DefaultSiteAddress), "/"),
		UserAgent:           getEnv("USER_AGENT", constants.DefaultUserAgent),
		SpotifyClientID:     getEnv("SPOTIFY_CLIENT_ID", ""),
		SpotifyClientSecret: getEnv("SPOTIFY_CLIENT_SECRET", ""),
		SpotifyTokenURL:     getEnv("SPOTIFY_TOKEN_URL", constants.SpotifyTokenURL),
		SpotifyAPIURL:       strings.TrimRight(getEnv("SPOTIFY_API_URL", constants.SpotifyAPIURL), "/"),
		RedisURL:            getEnv("REDIS_URL", ""),
		DataDir:             getEnv("DATA_DIR", constants.DefaultDataDir),
	}

	cfg.RequestInterval = cfg.duration("REQUEST_INTERVAL", constants.DefaultRequestInterval)
	cfg.CacheTTL = cfg.duration("CACHE_TTL", constants.DefaultCacheTTL)
	cfg.LockTTL = cfg.duration("LOCK_TTL", constants.DefaultLockTTL)
	cfg.ScheduleInterval = cfg.duration("SCHEDULE_INTERVAL", constants.DefaultScheduleInterval)
	cfg.ScrapeWorkers = cfg.integer("SCRAPE_WORKERS", constants.DefaultScrapeWorkers)
	cfg.RefreshArtistStats = cfg.boolean("REFRESH_ARTIST_STATS", false)

	if raw := getEnv("SCHEDULE", ""); raw != "" {
		keys, err := ParseSchedule(raw, time.Now())
		if err != nil {
			cfg.loadErrors = append(cfg.loadErrors, fmt.Sprintf("SCHEDULE is invalid: %v", err))
		}
		cfg.Schedule = keys
	}

	return cfg
}

// SpotifyEnabled reports whether both Spotify credentials are configured.
func (c *Config) SpotifyEnabled() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	problems := append([]string(nil), c.loadErrors...)

	if c.Port == "" {
		problems = append(problems, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			problems = append(problems, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			problems = append(problems, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBDriver != constants.DriverSQLite && c.DBDriver != constants.DriverPostgres {
		problems = append(problems, fmt.Sprintf("DB_DRIVER must be one of: sqlite, postgres, got: %s", c.DBDriver))
	}

	if c.DBDSN == "" {
		problems = append(problems, "DB_DSN cannot be empty")
	}

	if c.SiteAddress == "" {
		problems = append(problems, "SITE_ADDRESS cannot be empty")
	} else if u, err := url.Parse(c.SiteAddress); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("SITE_ADDRESS is not a valid URL: %s", c.SiteAddress))
	}

	if (c.SpotifyClientID == "") != (c.SpotifyClientSecret == "") {
		problems = append(problems, "SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set together")
	}

	if c.RedisURL != "" {
		if _, err := url.Parse(c.RedisURL); err != nil {
			problems = append(problems, fmt.Sprintf("REDIS_URL is not a valid URL: %s", c.RedisURL))
		}
	}

	if c.ScrapeWorkers < 1 {
		problems = append(problems, fmt.Sprintf("SCRAPE_WORKERS must be at least 1, got: %d", c.ScrapeWorkers))
	}

	if c.LockTTL <= 0 {
		problems = append(problems, "LOCK_TTL must be positive")
	}

	if len(c.Schedule) > 0 && c.ScheduleInterval <= 0 {
		problems = append(problems, "SCHEDULE_INTERVAL must be positive when SCHEDULE is set")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		problems = append(problems, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		problems = append(problems, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}

	return nil
}

// ParseSchedule parses a comma separated list of filter:year:sort chart keys.
// "all" or "0" as the year means every year for the all and 90day filters and
// now's year for the year filter. Keys are normalized the same way the CLI
// normalizes them, and repeated keys are dropped.
func ParseSchedule(raw string, now time.Time) ([]domain.ChartKey, error) {
	var keys []domain.ChartKey
	seen := make(map[domain.ChartKey]bool)
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("%q: expected filter:year:sort", item)
		}
		key := domain.ChartKey{Filter: parts[0], Sort: parts[2]}
		if year := strings.TrimSpace(parts[1]); year != "all" {
			n, err := strconv.Atoi(year)
			if err != nil {
				return nil, fmt.Errorf("%q: bad year: %w", item, err)
			}
			key.Year = n
		}
		if key.Filter == constants.FilterYear && key.Year != 0 &&
			(key.Year < constants.FirstChartYear || key.Year > now.Year()) {
			return nil, fmt.Errorf("%q: year must be between %d and %d", item, constants.FirstChartYear, now.Year())
		}
		key = key.Normalize(now)
		if err := key.Validate(); err != nil {
			return nil, fmt.Errorf("%q: %w", item, err)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys, nil
}

func (c *Config) duration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		c.loadErrors = append(c.loadErrors, fmt.Sprintf("%s must be a duration, got: %s", key, raw))
		return fallback
	}
	return d
}

func (c *Config) integer(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.loadErrors = append(c.loadErrors, fmt.Sprintf("%s must be a number, got: %s", key, raw))
		return fallback
	}
	return n
}

func (c *Config) boolean(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		c.loadErrors = append(c.loadErrors, fmt.Sprintf("%s must be true or false, got: %s", key, raw))
		return fallback
	}
	return b
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
