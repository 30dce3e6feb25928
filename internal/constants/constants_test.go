package constants

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultValues(t *testing.T) {
	if DefaultPort != "8080" {
		t.Errorf("Expected DefaultPort to be '8080', got '%s'", DefaultPort)
	}

	if DefaultDBDSN != "topalbums.db" {
		t.Errorf("Expected DefaultDBDSN to be 'topalbums.db', got '%s'", DefaultDBDSN)
	}

	if DefaultDBDriver != DriverSQLite {
		t.Errorf("Expected DefaultDBDriver to be '%s', got '%s'", DriverSQLite, DefaultDBDriver)
	}

	if DefaultSiteAddress != "https://www.metacritic.com" {
		t.Errorf("Expected DefaultSiteAddress to be 'https://www.metacritic.com', got '%s'", DefaultSiteAddress)
	}
}

func TestChartPaths(t *testing.T) {
	for _, sort := range []string{SortMetaScore, SortUserScore} {
		path, ok := SortPaths[sort]
		if !ok {
			t.Errorf("Missing sort path for %s", sort)
			continue
		}
		if !strings.HasPrefix(path, "/browse/albums/") {
			t.Errorf("Sort path for %s should start with /browse/albums/, got %s", sort, path)
		}
	}

	for _, filter := range []string{FilterYear, FilterAll, Filter90Days} {
		if _, ok := FilterPaths[filter]; !ok {
			t.Errorf("Missing filter path for %s", filter)
		}
	}
}

func TestTimeouts(t *testing.T) {
	if DefaultRequestInterval <= 0 {
		t.Error("DefaultRequestInterval should be positive")
	}
	if DefaultCacheTTL < time.Hour {
		t.Errorf("DefaultCacheTTL should be at least an hour, got %v", DefaultCacheTTL)
	}
	if DefaultRetryCount < 1 {
		t.Errorf("DefaultRetryCount should be at least 1, got %d", DefaultRetryCount)
	}
}
