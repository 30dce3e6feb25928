package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/cesargomez89/topalbums/internal/constants"
)

// ChartKey identifies a logical chart: one (filter, year, sort) combination.
// Year 0 stands for "all years".
type ChartKey struct {
	Filter string `json:"filter" db:"filter_method"`
	Sort   string `json:"sort" db:"sort_method"`
	Year   int    `json:"year" db:"year"`
}

// Normalize maps equivalent spellings of a chart onto one key: the year
// filter always carries a year (defaulting to now's), the other filters never do.
func (k ChartKey) Normalize(now time.Time) ChartKey {
	k.Filter = strings.TrimSpace(k.Filter)
	k.Sort = strings.TrimSpace(k.Sort)
	if k.Filter != constants.FilterYear {
		k.Year = 0
	} else if k.Year == 0 {
		k.Year = now.Year()
	}
	return k
}

func (k ChartKey) Validate() error {
	if strings.TrimSpace(k.Filter) == "" {
		return fmt.Errorf("%w: filter is empty", ErrInvalidChartKey)
	}
	if strings.TrimSpace(k.Sort) == "" {
		return fmt.Errorf("%w: sort is empty", ErrInvalidChartKey)
	}
	if _, ok := constants.FilterPaths[k.Filter]; !ok {
		return fmt.Errorf("%w: unknown filter %q", ErrInvalidChartKey, k.Filter)
	}
	if _, ok := constants.SortPaths[k.Sort]; !ok {
		return fmt.Errorf("%w: unknown sort %q", ErrInvalidChartKey, k.Sort)
	}
	if k.Year < 0 {
		return fmt.Errorf("%w: negative year %d", ErrInvalidChartKey, k.Year)
	}
	if k.Filter == constants.FilterYear && k.Year == 0 {
		return fmt.Errorf("%w: the year filter needs a year", ErrInvalidChartKey)
	}
	if k.Filter != constants.FilterYear && k.Year != 0 {
		return fmt.Errorf("%w: filter %q does not take a year", ErrInvalidChartKey, k.Filter)
	}
	return nil
}

func (k ChartKey) String() string {
	year := "all"
	if k.Year > 0 {
		year = fmt.Sprintf("%d", k.Year)
	}
	return k.Filter + "/" + year + "/" + k.Sort
}

// Chart is the stored chart dimension row.
type Chart struct {
	ChartKey
	ID int64 `json:"id" db:"id"`
}

type Artist struct {
	ProfileLink *string `json:"profile_link,omitempty" db:"profile_link"`
	Popularity  *int    `json:"popularity,omitempty" db:"popularity"`
	Followers   *int    `json:"followers,omitempty" db:"followers"`
	Name        string  `json:"name" db:"name"`
	ID          int64   `json:"id" db:"id"`
}

type Publisher struct {
	ProfileLink *string `json:"profile_link,omitempty" db:"profile_link"`
	Name        string  `json:"name" db:"name"`
	ID          int64   `json:"id" db:"id"`
}

type Summary struct {
	Text string `json:"text" db:"summary"`
	ID   int64  `json:"id" db:"id"`
}

type Genre struct {
	Name string `json:"name" db:"name"`
	ID   int64  `json:"id" db:"id"`
}

type Market struct {
	Code string `json:"code" db:"code"`
	ID   int64  `json:"id" db:"id"`
}

// Album is the stored album row. Its natural key is (ArtistID, Name).
type Album struct {
	PageLink     *string `json:"page_link,omitempty" db:"page_link"`
	DetailsLink  *string `json:"details_link,omitempty" db:"details_link"`
	PurchaseLink *string `json:"purchase_link,omitempty" db:"purchase_link"`
	TrackCount   *int    `json:"track_count,omitempty" db:"track_count"`
	PublisherID  *int64  `json:"publisher_id,omitempty" db:"publisher_id"`
	SummaryID    *int64  `json:"summary_id,omitempty" db:"summary_id"`
	ReleaseDate  Date    `json:"release_date" db:"release_date"`
	Name         string  `json:"name" db:"name"`
	ID           int64   `json:"id" db:"id"`
	ArtistID     int64   `json:"artist_id" db:"artist_id"`
}

// HistoryEntry is the snapshot appended to chart_history for one album in one scrape.
type HistoryEntry struct {
	Metascore     *int     `json:"metascore" db:"metascore"`
	UserScore     *float64 `json:"user_score" db:"user_score"`
	CriticReviews *int     `json:"critic_reviews" db:"critic_reviews"`
	UserReviews   *int     `json:"user_reviews" db:"user_reviews"`
	ChartID       int64    `json:"chart_id" db:"chart_id"`
	AlbumID       int64    `json:"album_id" db:"album_id"`
	Rank          int      `json:"rank" db:"album_rank"`
}

// ChartHistory is a stored history row.
type ChartHistory struct {
	ScrapedAt time.Time `json:"scraped_at" db:"scraped_at"`
	HistoryEntry
	ID int64 `json:"id" db:"id"`
}

// HistoryRow is a history row joined with album and artist names for reads and export.
type HistoryRow struct {
	AlbumName  string `json:"album_name" db:"album_name"`
	ArtistName string `json:"artist_name" db:"artist_name"`
	ChartHistory
}

// AlbumDetail is an album with its resolved dimensions.
type AlbumDetail struct {
	Artist    Artist         `json:"artist"`
	Publisher *Publisher     `json:"publisher,omitempty"`
	Summary   *Summary       `json:"summary,omitempty"`
	Genres    []string       `json:"genres"`
	Markets   []string       `json:"markets"`
	History   []ChartHistory `json:"history"`
	Album
}
