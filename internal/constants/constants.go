// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort             = "8080"
	DefaultDBDriver         = DriverSQLite
	DefaultDBDSN            = "topalbums.db"
	DefaultSiteAddress      = "https://www.metacritic.com"
	DefaultUserAgent        = "Mozilla/5.0"
	DefaultRequestInterval  = 500 * time.Millisecond
	DefaultScrapeWorkers    = 4
	DefaultHTTPTimeout      = 30 * time.Second
	DefaultRetryCount       = 3
	DefaultRetryBase        = 1 * time.Second
	DefaultCacheTTL         = 12 * time.Hour
	DefaultLockTTL          = 5 * time.Minute
	DefaultDataDir          = "data"
	DefaultScheduleInterval = 24 * time.Hour
	DefaultPageSize         = 50
	MaxPageSize             = 500
)

// Spotify endpoints
const (
	SpotifyTokenURL = "https://accounts.spotify.com/api/token"
	SpotifyAPIURL   = "https://api.spotify.com/v1"
)

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Chart sort methods
const (
	SortMetaScore = "meta_score"
	SortUserScore = "user_score"
)

// Chart filter methods
const (
	FilterYear   = "year"
	FilterAll    = "all"
	Filter90Days = "90day"
)

// FirstChartYear is the earliest year the charts carry albums for.
const FirstChartYear = 1999

// SortPaths maps a sort method to its chart URL path.
var SortPaths = map[string]string{
	SortMetaScore: "/browse/albums/score/metascore",
	SortUserScore: "/browse/albums/score/userscore",
}

// FilterPaths maps a filter method to its chart URL path.
var FilterPaths = map[string]string{
	FilterYear:   "/year/filtered",
	FilterAll:    "/all/filtered",
	Filter90Days: "/90day/filtered",
}

// Database
const (
	CacheTable   = "cache"
	WriterLock   = "topalbums:load"
	CSVExtension = ".csv"
)

// File Permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)
