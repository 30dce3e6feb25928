package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/cesargomez89/topalbums/internal/constants"
	"github.com/cesargomez89/topalbums/internal/domain"
	"github.com/cesargomez89/topalbums/internal/logger"
)

// maxPages bounds a scrape that never sees an empty page.
const maxPages = 100

// Fetcher returns the body of a page. *httpclient.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Options struct {
	Max      int  // stop after this many entries; zero means the whole chart
	Workers  int  // parallel album page fetches
	Progress bool // log album page progress at info level
	ShowURLs bool // log every fetched URL at info level
}

type Scraper struct {
	fetcher Fetcher
	site    string
	log     *logger.Logger
}

func New(fetcher Fetcher, site string, log *logger.Logger) *Scraper {
	if log == nil {
		log = logger.Default()
	}
	return &Scraper{
		fetcher: fetcher,
		site:    strings.TrimRight(site, "/"),
		log:     log.WithComponent("scraper"),
	}
}

// ChartURL builds the chart page URL for key. Pages are zero based.
func ChartURL(site string, key domain.ChartKey, page int) (string, error) {
	sortPath, ok := constants.SortPaths[key.Sort]
	if !ok {
		return "", fmt.Errorf("%w: unknown sort %q", domain.ErrInvalidChartKey, key.Sort)
	}
	filterPath, ok := constants.FilterPaths[key.Filter]
	if !ok {
		return "", fmt.Errorf("%w: unknown filter %q", domain.ErrInvalidChartKey, key.Filter)
	}

	q := url.Values{}
	if key.Year > 0 {
		q.Set("year_selected", strconv.Itoa(key.Year))
	}
	q.Set("sort", "desc")
	q.Set("view", "detailed")
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	return strings.TrimRight(site, "/") + sortPath + filterPath + "?" + q.Encode(), nil
}

// Scrape collects the chart entries for key, then fetches every album page and
// returns the merged records in chart order.
func (s *Scraper) Scrape(ctx context.Context, key domain.ChartKey, opts Options) ([]domain.AlbumRecord, error) {
	entries, err := s.scrapeChart(ctx, key, opts)
	if err != nil {
		return nil, err
	}
	s.log.Info("Chart scraped", "chart", key.String(), "entries", len(entries))

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	var done atomic.Int64
	total := len(entries)
	records := make([]domain.AlbumRecord, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range entries {
		i := i
		e := entries[i]
		if e.PageLink == nil {
			records[i] = e.Record(nil)
			s.progress(opts, done.Add(1), total)
			continue
		}
		g.Go(func() error {
			s.fetched(opts, *e.PageLink)
			body, err := s.fetcher.Fetch(gctx, *e.PageLink)
			if err != nil {
				return fmt.Errorf("album %q: %w", e.Name, err)
			}
			details, err := ParseAlbum(bytes.NewReader(body), s.site)
			if err != nil {
				return fmt.Errorf("album %q: %w", e.Name, err)
			}
			records[i] = e.Record(details)
			s.log.Debug("Album page scraped", "rank", e.Rank, "album", e.Name)
			s.progress(opts, done.Add(1), total)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Scraper) scrapeChart(ctx context.Context, key domain.ChartKey, opts Options) ([]ChartEntry, error) {
	var entries []ChartEntry
	for page := 0; page < maxPages; page++ {
		pageURL, err := ChartURL(s.site, key, page)
		if err != nil {
			return nil, err
		}
		s.fetched(opts, pageURL)
		body, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("chart page %d: %w", page, err)
		}
		found, err := ParseChart(bytes.NewReader(body), s.site)
		if err != nil {
			return nil, fmt.Errorf("chart page %d: %w", page, err)
		}
		if len(found) == 0 {
			break
		}

		for _, e := range found {
			if e.Rank == 0 {
				e.Rank = len(entries) + 1
			}
			entries = append(entries, e)
			if opts.Max > 0 && len(entries) >= opts.Max {
				return entries, nil
			}
		}
	}
	return entries, nil
}

func (s *Scraper) progress(opts Options, done int64, total int) {
	if !opts.Progress || total == 0 {
		return
	}
	s.log.Info("Scrape progress", "done", done, "total", total,
		"percent", fmt.Sprintf("%.2f", 100*float64(done)/float64(total)))
}

func (s *Scraper) fetched(opts Options, pageURL string) {
	if opts.ShowURLs {
		s.log.Info("Fetching page", "url", pageURL)
	}
}
