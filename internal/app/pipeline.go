// Package app runs the scrape, enrich, export and load steps for a chart.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/cesargomez89/topalbums/internal/constants"
	"github.com/cesargomez89/topalbums/internal/domain"
	"github.com/cesargomez89/topalbums/internal/enrich"
	"github.com/cesargomez89/topalbums/internal/export"
	"github.com/cesargomez89/topalbums/internal/loader"
	"github.com/cesargomez89/topalbums/internal/logger"
	"github.com/cesargomez89/topalbums/internal/scraper"
)

type Scraper interface {
	Scrape(ctx context.Context, key domain.ChartKey, opts scraper.Options) ([]domain.AlbumRecord, error)
}

type Enricher interface {
	EnrichBatch(ctx context.Context, records []domain.AlbumRecord) (enrich.Stats, error)
}

type Loader interface {
	Load(ctx context.Context, batch domain.Batch) (*loader.Report, error)
}

var (
	_ Scraper  = (*scraper.Scraper)(nil)
	_ Enricher = (*enrich.Enricher)(nil)
	_ Loader   = (*loader.Loader)(nil)
)

// RunOptions selects the optional steps of a run.
type RunOptions struct {
	CSVDir   string // write <sort>_<filter>_<year>.csv here when set
	Max      int
	Workers  int
	NoDB     bool
	Enrich   bool
	Progress bool
	ShowURLs bool
}

// Result describes one chart run.
type Result struct {
	Report  *loader.Report  `json:"report,omitempty"`
	Key     domain.ChartKey `json:"key"`
	CSVPath string          `json:"csv_path,omitempty"`
	Enrich  enrich.Stats    `json:"enrich"`
	Records int             `json:"records"`
}

type Pipeline struct {
	scraper  Scraper
	enricher Enricher
	loader   Loader
	log      *logger.Logger
}

// NewPipeline wires the steps together. enricher and loader may be nil, in
// which case those steps are skipped.
func NewPipeline(s Scraper, e Enricher, l Loader, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Default()
	}
	return &Pipeline{
		scraper:  s,
		enricher: e,
		loader:   l,
		log:      log.WithComponent("pipeline"),
	}
}

// Run scrapes one chart and passes the records through the enabled steps.
// The CSV is written before the load so a failed load still leaves the data on disk.
func (p *Pipeline) Run(ctx context.Context, key domain.ChartKey, opts RunOptions) (*Result, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	log := p.log.With("chart", key.String())

	records, err := p.scraper.Scrape(ctx, key, scraper.Options{
		Max:      opts.Max,
		Workers:  opts.Workers,
		Progress: opts.Progress,
		ShowURLs: opts.ShowURLs,
	})
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", key, err)
	}
	res := &Result{Key: key, Records: len(records)}

	if opts.Enrich && p.enricher != nil && len(records) > 0 {
		stats, err := p.enricher.EnrichBatch(ctx, records)
		if err != nil {
			return nil, fmt.Errorf("enrich %s: %w", key, err)
		}
		res.Enrich = stats
	}

	if opts.CSVDir != "" {
		path := filepath.Join(opts.CSVDir, export.FileName(key))
		if err := export.SaveFile(path, func(w io.Writer) error {
			return export.WriteRecords(w, records)
		}); err != nil {
			return nil, fmt.Errorf("save csv %s: %w", path, err)
		}
		res.CSVPath = path
		log.Info("CSV saved", "path", path)
	}

	if !opts.NoDB && p.loader != nil {
		report, err := p.loader.Load(ctx, domain.Batch{Key: key, Records: records})
		if err != nil {
			return nil, err
		}
		res.Report = report
	}

	log.Info("Chart run finished", "records", res.Records, "duration", time.Since(start))
	return res, nil
}

// RunAll runs every key in order. A failed chart is logged and the rest still
// run; the joined errors are returned at the end.
func (p *Pipeline) RunAll(ctx context.Context, keys []domain.ChartKey, opts RunOptions) ([]*Result, error) {
	var (
		results []*Result
		errs    []error
	)
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := p.Run(ctx, key, opts)
		if err != nil {
			p.log.Error("Chart run failed", "chart", key.String(), "error", err)
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// AllKeys lists every chart: each year from FirstChartYear to lastYear for
// the year filter, and the yearless filters once. Each is listed per sort.
func AllKeys(lastYear int) []domain.ChartKey {
	sorts := []string{constants.SortMetaScore, constants.SortUserScore}

	var keys []domain.ChartKey
	for year := constants.FirstChartYear; year <= lastYear; year++ {
		for _, sort := range sorts {
			keys = append(keys, domain.ChartKey{Filter: constants.FilterYear, Year: year, Sort: sort})
		}
	}
	for _, filter := range []string{constants.FilterAll, constants.Filter90Days} {
		for _, sort := range sorts {
			keys = append(keys, domain.ChartKey{Filter: filter, Sort: sort})
		}
	}
	return keys
}
