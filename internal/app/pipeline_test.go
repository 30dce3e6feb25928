package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cesargomez89/topalbums/internal/app"
	"github.com/cesargomez89/topalbums/internal/domain"
	"github.com/cesargomez89/topalbums/internal/enrich"
	"github.com/cesargomez89/topalbums/internal/loader"
	"github.com/cesargomez89/topalbums/internal/logger"
	"github.com/cesargomez89/topalbums/internal/scraper"
	"github.com/cesargomez89/topalbums/internal/store"
)

type fakeScraper struct {
	records []domain.AlbumRecord
	fail    map[domain.ChartKey]bool
	opts    scraper.Options
	calls   int
}

func (f *fakeScraper) Scrape(_ context.Context, key domain.ChartKey, opts scraper.Options) ([]domain.AlbumRecord, error) {
	f.calls++
	f.opts = opts
	if f.fail[key] {
		return nil, errors.New("chart page 0: status 503")
	}
	out := make([]domain.AlbumRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

type fakeEnricher struct {
	calls int
}

func (f *fakeEnricher) EnrichBatch(_ context.Context, records []domain.AlbumRecord) (enrich.Stats, error) {
	f.calls++
	for i := range records {
		n := 10
		records[i].TrackCount = &n
	}
	return enrich.Stats{Albums: len(records)}, nil
}

var chart2020 = domain.ChartKey{Filter: "year", Year: 2020, Sort: "meta_score"}

func sampleRecords() []domain.AlbumRecord {
	return []domain.AlbumRecord{
		{Rank: 1, Name: "Fetch the Bolt Cutters", ArtistName: "Fiona Apple"},
		{Rank: 2, Name: "Punisher", ArtistName: "Phoebe Bridgers"},
	}
}

func setupDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "pipeline.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPipelineRun(t *testing.T) {
	db := setupDB(t)
	s := &fakeScraper{records: sampleRecords()}
	e := &fakeEnricher{}
	l := loader.New(db, loader.Options{Logger: logger.Discard()})
	p := app.NewPipeline(s, e, l, logger.Discard())

	csvDir := t.TempDir()
	res, err := p.Run(context.Background(), chart2020, app.RunOptions{CSVDir: csvDir, Max: 5, Workers: 2, Enrich: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if s.opts.Max != 5 || s.opts.Workers != 2 {
		t.Errorf("Scraper options not passed through: %+v", s.opts)
	}
	if res.Records != 2 || res.Enrich.Albums != 2 || e.calls != 1 {
		t.Errorf("Unexpected result: %+v", res)
	}
	if res.Report == nil || res.Report.Rows != 2 {
		t.Fatalf("Expected load report with 2 rows, got %+v", res.Report)
	}

	if res.CSVPath != filepath.Join(csvDir, "meta_score_year_2020.csv") {
		t.Errorf("Unexpected CSV path %q", res.CSVPath)
	}
	data, err := os.ReadFile(res.CSVPath)
	if err != nil {
		t.Fatalf("CSV not written: %v", err)
	}
	if !strings.Contains(string(data), "Fetch the Bolt Cutters") {
		t.Errorf("CSV missing records: %s", data)
	}

	var trackCount int
	if err := db.GetContext(context.Background(), &trackCount, "SELECT track_count FROM albums WHERE name = 'Punisher'"); err != nil {
		t.Fatalf("lookup album: %v", err)
	}
	if trackCount != 10 {
		t.Errorf("Expected enriched track count stored, got %d", trackCount)
	}
}

func TestPipelineRun_SkipSteps(t *testing.T) {
	db := setupDB(t)
	e := &fakeEnricher{}
	l := loader.New(db, loader.Options{Logger: logger.Discard()})
	p := app.NewPipeline(&fakeScraper{records: sampleRecords()}, e, l, logger.Discard())

	res, err := p.Run(context.Background(), chart2020, app.RunOptions{NoDB: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Report != nil || res.CSVPath != "" || e.calls != 0 {
		t.Errorf("Expected only the scrape to run, got %+v", res)
	}

	var n int
	if err := db.GetContext(context.Background(), &n, "SELECT COUNT(*) FROM chart_history"); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected nothing loaded, got %d rows", n)
	}
}

func TestPipelineRun_InvalidKey(t *testing.T) {
	s := &fakeScraper{}
	p := app.NewPipeline(s, nil, nil, logger.Discard())

	_, err := p.Run(context.Background(), domain.ChartKey{Filter: "year", Year: -1, Sort: "meta_score"}, app.RunOptions{})
	if !errors.Is(err, domain.ErrInvalidChartKey) {
		t.Errorf("Expected ErrInvalidChartKey, got %v", err)
	}
	if s.calls != 0 {
		t.Error("Expected no scrape for an invalid key")
	}
}

func TestPipelineRun_LoadFailure(t *testing.T) {
	db := setupDB(t)
	records := sampleRecords()
	records[1].ArtistName = ""
	p := app.NewPipeline(&fakeScraper{records: records}, nil, loader.New(db, loader.Options{Logger: logger.Discard()}), logger.Discard())

	_, err := p.Run(context.Background(), chart2020, app.RunOptions{})
	var bErr *loader.BatchError
	if !errors.As(err, &bErr) || bErr.Row != 2 {
		t.Fatalf("Expected BatchError on row 2, got %v", err)
	}
}

func TestRunAll_ContinuesPastFailures(t *testing.T) {
	db := setupDB(t)
	bad := domain.ChartKey{Filter: "all", Sort: "user_score"}
	s := &fakeScraper{records: sampleRecords(), fail: map[domain.ChartKey]bool{bad: true}}
	p := app.NewPipeline(s, nil, loader.New(db, loader.Options{Logger: logger.Discard()}), logger.Discard())

	keys := []domain.ChartKey{chart2020, bad, {Filter: "90day", Sort: "meta_score"}}
	results, err := p.RunAll(context.Background(), keys, app.RunOptions{})
	if err == nil {
		t.Fatal("Expected joined error for the failed chart")
	}
	if len(results) != 2 || s.calls != 3 {
		t.Errorf("Expected 2 results from 3 runs, got %d from %d", len(results), s.calls)
	}

	charts, err := db.ListCharts(context.Background())
	if err != nil {
		t.Fatalf("ListCharts failed: %v", err)
	}
	if len(charts) != 2 {
		t.Errorf("Expected 2 stored charts, got %d", len(charts))
	}
}

func TestAllKeys(t *testing.T) {
	keys := app.AllKeys(2001)

	// 3 years and 2 yearless filters, each for 2 sorts
	if len(keys) != 10 {
		t.Fatalf("Expected 10 keys, got %d", len(keys))
	}
	if keys[0] != (domain.ChartKey{Filter: "year", Year: 1999, Sort: "meta_score"}) {
		t.Errorf("Unexpected first key %v", keys[0])
	}
	seen := map[domain.ChartKey]bool{}
	for _, k := range keys {
		if seen[k] {
			t.Errorf("Duplicate key %v", k)
		}
		seen[k] = true
		if err := k.Validate(); err != nil {
			t.Errorf("Invalid key %v: %v", k, err)
		}
	}
}
