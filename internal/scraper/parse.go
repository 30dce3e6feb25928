// Package scraper fetches Metacritic album charts and album pages.
package scraper

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"github.com/cesargomez89/topalbums/internal/domain"
)

// Release date formats used on chart and album pages.
const (
	ChartDateLayout = "January 2, 2006"
	AlbumDateLayout = "Jan 2, 2006"
)

// ChartEntry is one ranked row of a chart page.
type ChartEntry struct {
	PageLink    *string
	Summary     *string
	Metascore   *int
	UserScore   *float64
	ReleaseDate domain.Date
	Name        string
	ArtistName  string
	Rank        int
}

// AlbumDetails is what the album page adds on top of the chart row.
type AlbumDetails struct {
	ArtistLink        *string
	CoverImage        *string
	CriticReviewsLink *string
	UserReviewsLink   *string
	PublisherName *string
	PublisherLink *string
	DetailsLink   *string
	PurchaseLink  *string
	CriticReviews *int
	UserReviews   *int
	ReleaseDate   domain.Date
	Genres        []string
}

// ParseChart extracts the ranked entries of one chart page. Links are made
// absolute against site. A page without entries yields an empty slice.
func ParseChart(r io.Reader, site string) ([]ChartEntry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse chart page: %w", err)
	}

	var entries []ChartEntry
	doc.Find("td.clamp-summary-wrap").Each(func(_ int, s *goquery.Selection) {
		title := s.Find("a.title").First()
		e := ChartEntry{
			Name:       clean(title.Find("h3").Text()),
			ArtistName: strings.TrimSpace(strings.TrimPrefix(clean(s.Find("div.artist").Text()), "by ")),
			Summary:    optional(s.Find("div.summary").Text()),
			Metascore:  parseInt(s.Find("div.metascore_w").Not(".user").First().Text()),
			UserScore:  parseScore(s.Find("div.metascore_w.user").First().Text()),
		}
		if href, ok := title.Attr("href"); ok {
			e.PageLink = optional(absolute(site, href))
		}
		if rank := parseInt(strings.TrimSuffix(clean(s.Find("span.numbered").Text()), ".")); rank != nil {
			e.Rank = *rank
		}
		if d, err := domain.ParseDate(ChartDateLayout, clean(s.Find("div.clamp-details span").First().Text())); err == nil {
			e.ReleaseDate = d
		}
		if e.Name == "" {
			return
		}
		entries = append(entries, e)
	})

	return entries, nil
}

// ParseAlbum extracts the album page details.
func ParseAlbum(r io.Reader, site string) (*AlbumDetails, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse album page: %w", err)
	}

	d := &AlbumDetails{
		ArtistLink:        attrLink(doc.Find("div.product_artist a").First(), site),
		DetailsLink:       attrLink(doc.Find("li.nav_details a").First(), site),
		CriticReviewsLink: attrLink(doc.Find("li.nav_critic_reviews a").First(), site),
		UserReviewsLink:   attrLink(doc.Find("li.nav_user_reviews a").First(), site),
		PurchaseLink:      attrLink(doc.Find("td.esite_img_wrapper a").First(), site),
		CriticReviews:     parseInt(doc.Find(`span[itemprop="reviewCount"]`).First().Text()),
		UserReviews:       parseInt(strings.TrimSuffix(clean(doc.Find("div.feature_userscore span.count a").First().Text()), " Ratings")),
	}
	if src, ok := doc.Find("img.product_image.large_image").First().Attr("src"); ok {
		d.CoverImage = optional(absolute(site, src))
	}

	publisher := doc.Find(`span.data[itemprop="publisher"] a`).First()
	d.PublisherName = optional(publisher.Text())
	d.PublisherLink = attrLink(publisher, site)

	published := clean(doc.Find(`span[itemprop="datePublished"]`).First().Text())
	for _, layout := range []string{AlbumDateLayout, ChartDateLayout} {
		if date, err := domain.ParseDate(layout, published); err == nil {
			d.ReleaseDate = date
			break
		}
	}

	doc.Find("li.product_genre span.data").Each(func(_ int, s *goquery.Selection) {
		if g := clean(s.Text()); g != "" {
			d.Genres = append(d.Genres, g)
		}
	})

	return d, nil
}

// Record merges a chart entry with its album page into a loader record.
// details may be nil when the album page was not fetched.
func (e ChartEntry) Record(details *AlbumDetails) domain.AlbumRecord {
	rec := domain.AlbumRecord{
		Rank:        e.Rank,
		Name:        e.Name,
		ArtistName:  e.ArtistName,
		PageLink:    e.PageLink,
		Summary:     e.Summary,
		Metascore:   e.Metascore,
		UserScore:   e.UserScore,
		ReleaseDate: e.ReleaseDate,
	}
	if details == nil {
		return rec
	}

	rec.ArtistLink = details.ArtistLink
	rec.CoverImage = details.CoverImage
	rec.CriticReviewsLink = details.CriticReviewsLink
	rec.UserReviewsLink = details.UserReviewsLink
	rec.PublisherName = details.PublisherName
	rec.PublisherLink = details.PublisherLink
	rec.DetailsLink = details.DetailsLink
	rec.PurchaseLink = details.PurchaseLink
	rec.CriticReviews = details.CriticReviews
	rec.UserReviews = details.UserReviews
	rec.Genres = details.Genres
	if !rec.ReleaseDate.Valid {
		rec.ReleaseDate = details.ReleaseDate
	}
	return rec
}

// clean collapses whitespace and normalizes to NFC.
func clean(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

func optional(s string) *string {
	s = clean(s)
	if s == "" {
		return nil
	}
	return &s
}

func attrLink(s *goquery.Selection, site string) *string {
	href, ok := s.Attr("href")
	if !ok {
		return nil
	}
	return optional(absolute(site, href))
}

func absolute(site, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return strings.TrimRight(site, "/") + href
}

func parseInt(s string) *int {
	s = strings.ReplaceAll(clean(s), ",", "")
	if f := strings.Fields(s); len(f) > 0 {
		s = f[0]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// parseScore reads a user score; "tbd" and other non-numbers are nil.
func parseScore(s string) *float64 {
	f, err := strconv.ParseFloat(clean(s), 64)
	if err != nil {
		return nil
	}
	return &f
}
