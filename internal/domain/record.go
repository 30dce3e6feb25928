package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRecord   = errors.New("invalid album record")
	ErrInvalidChartKey = errors.New("invalid chart key")
)

// ValidationError names the record field that failed a precondition.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidRecord, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRecord
}

// AlbumRecord is one scraped (and optionally enriched) album as handed to the loader.
// Nil pointers mean the value was missing on the page or not enriched.
// CoverImage and the review links are exported to CSV but not stored.
type AlbumRecord struct {
	ArtistLink        *string  `json:"artist_link,omitempty"`
	ArtistPopularity  *int     `json:"artist_popularity,omitempty"`
	ArtistFollowers   *int     `json:"artist_followers,omitempty"`
	PublisherName     *string  `json:"publisher_name,omitempty"`
	PublisherLink     *string  `json:"publisher_link,omitempty"`
	Summary           *string  `json:"summary,omitempty"`
	PageLink          *string  `json:"page_link,omitempty"`
	DetailsLink       *string  `json:"details_link,omitempty"`
	PurchaseLink      *string  `json:"purchase_link,omitempty"`
	CoverImage        *string  `json:"cover_image,omitempty"`
	CriticReviewsLink *string  `json:"critic_reviews_link,omitempty"`
	UserReviewsLink   *string  `json:"user_reviews_link,omitempty"`
	TrackCount        *int     `json:"track_count,omitempty"`
	Metascore         *int     `json:"metascore,omitempty"`
	UserScore         *float64 `json:"user_score,omitempty"`
	CriticReviews     *int     `json:"critic_reviews,omitempty"`
	UserReviews       *int     `json:"user_reviews,omitempty"`
	ReleaseDate       Date     `json:"release_date"`
	Name              string   `json:"name"`
	ArtistName        string   `json:"artist_name"`
	Genres            []string `json:"genres,omitempty"`
	Markets           []string `json:"markets,omitempty"`
	Rank              int      `json:"rank"`
}

// Normalize trims text fields and turns blank optional strings into nil.
func (r *AlbumRecord) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.ArtistName = strings.TrimSpace(r.ArtistName)

	for _, p := range []**string{
		&r.ArtistLink, &r.PublisherName, &r.PublisherLink, &r.Summary,
		&r.PageLink, &r.DetailsLink, &r.PurchaseLink,
		&r.CoverImage, &r.CriticReviewsLink, &r.UserReviewsLink,
	} {
		if *p == nil {
			continue
		}
		v := strings.TrimSpace(**p)
		if v == "" {
			*p = nil
			continue
		}
		*p = &v
	}

	r.Genres = compact(r.Genres)
	r.Markets = compact(r.Markets)
}

// Validate checks the fields the schema requires to be present.
func (r *AlbumRecord) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: "name", Reason: "is empty"}
	}
	if strings.TrimSpace(r.ArtistName) == "" {
		return &ValidationError{Field: "artist_name", Reason: "is empty"}
	}
	if r.Rank < 1 {
		return &ValidationError{Field: "rank", Reason: fmt.Sprintf("must be positive, got %d", r.Rank)}
	}
	return nil
}

// Batch is the full set of records produced by one scrape of one chart.
type Batch struct {
	Key     ChartKey
	Records []AlbumRecord
}

func compact(in []string) []string {
	if len(in) == 0 {
		return in
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
