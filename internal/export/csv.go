// Package export writes chart data to CSV files.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cesargomez89/topalbums/internal/constants"
	"github.com/cesargomez89/topalbums/internal/domain"
)

// ListSeparator joins multi-valued columns such as genres and markets.
const ListSeparator = "|"

var recordHeader = []string{
	"Rank", "Album", "Artist", "Release Date", "Metascore", "User Score",
	"Critic Reviews", "User Reviews", "Publisher", "Genres", "Summary",
	"Track Count", "Markets", "Artist Popularity", "Artist Followers",
	"Page Link", "Artist Link", "Publisher Link", "Details Link", "Purchase Link",
	"Album Cover Image", "Critic Reviews Link", "User Reviews Link",
}

var historyHeader = []string{
	"Scraped At", "Rank", "Album", "Artist", "Metascore", "User Score",
	"Critic Reviews", "User Reviews",
}

// FileName is the CSV file name for a chart, e.g. meta_score_year_2022.csv.
func FileName(key domain.ChartKey) string {
	year := "all"
	if key.Year > 0 {
		year = strconv.Itoa(key.Year)
	}
	return key.Sort + "_" + key.Filter + "_" + year + constants.CSVExtension
}

// WriteRecords writes scraped records with a header row.
func WriteRecords(w io.Writer, records []domain.AlbumRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordHeader); err != nil {
		return err
	}

	for _, r := range records {
		if err := cw.Write([]string{
			strconv.Itoa(r.Rank),
			r.Name,
			r.ArtistName,
			r.ReleaseDate.String(),
			formatInt(r.Metascore),
			formatFloat(r.UserScore),
			formatInt(r.CriticReviews),
			formatInt(r.UserReviews),
			formatString(r.PublisherName),
			strings.Join(r.Genres, ListSeparator),
			formatString(r.Summary),
			formatInt(r.TrackCount),
			strings.Join(r.Markets, ListSeparator),
			formatInt(r.ArtistPopularity),
			formatInt(r.ArtistFollowers),
			formatString(r.PageLink),
			formatString(r.ArtistLink),
			formatString(r.PublisherLink),
			formatString(r.DetailsLink),
			formatString(r.PurchaseLink),
			formatString(r.CoverImage),
			formatString(r.CriticReviewsLink),
			formatString(r.UserReviewsLink),
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteHistory writes stored history rows with a header row.
func WriteHistory(w io.Writer, rows []domain.HistoryRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(historyHeader); err != nil {
		return err
	}

	for _, r := range rows {
		if err := cw.Write([]string{
			r.ScrapedAt.UTC().Format(time.RFC3339),
			strconv.Itoa(r.Rank),
			r.AlbumName,
			r.ArtistName,
			formatInt(r.Metascore),
			formatFloat(r.UserScore),
			formatInt(r.CriticReviews),
			formatInt(r.UserReviews),
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
