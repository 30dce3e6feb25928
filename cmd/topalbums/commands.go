package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cesargomez89/topalbums/internal/app"
	"github.com/cesargomez89/topalbums/internal/constants"
	"github.com/cesargomez89/topalbums/internal/domain"
	"github.com/cesargomez89/topalbums/internal/export"
	httpapp "github.com/cesargomez89/topalbums/internal/http"
	"github.com/cesargomez89/topalbums/internal/worker"
)

type ScrapeCmd struct {
	Filter   string `arg:"" optional:"" help:"Chart filter: year, all or 90day."`
	Year     int    `short:"y" help:"Release year for the year filter. Defaults to the current year."`
	Sort     string `short:"s" enum:"meta_score,user_score" default:"meta_score" help:"Sort order: meta_score or user_score."`
	Max      int    `short:"m" help:"Maximum number of albums to scrape."`
	All      bool   `short:"a" help:"Scrape every filter, sort and year combination."`
	CSV      bool   `name:"csv" short:"S" help:"Save the scraped chart to CSV in the data dir."`
	NoDB     bool   `name:"no-db" help:"Do not load the scraped chart into the database."`
	NoEnrich bool   `name:"no-enrich" help:"Skip the Spotify lookups."`
	Progress bool   `short:"p" help:"Log album page progress."`
	URLs     bool   `name:"urls" short:"u" help:"Log every fetched URL."`
}

func (c *ScrapeCmd) Validate() error {
	if !c.All {
		if c.Filter == "" {
			return errors.New("a filter is required unless --all is set")
		}
		if _, ok := constants.FilterPaths[c.Filter]; !ok {
			return fmt.Errorf("unknown filter %q: want year, all or 90day", c.Filter)
		}
	}
	if c.Year != 0 && (c.Year < constants.FirstChartYear || c.Year > time.Now().Year()) {
		return fmt.Errorf("year must be between %d and %d", constants.FirstChartYear, time.Now().Year())
	}
	return nil
}

// Key resolves the chart the flags select.
func (c *ScrapeCmd) Key(now time.Time) domain.ChartKey {
	return domain.ChartKey{Filter: c.Filter, Year: c.Year, Sort: c.Sort}.Normalize(now)
}

func (c *ScrapeCmd) Run(d *deps) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := app.RunOptions{
		Max:      c.Max,
		Workers:  d.Config.ScrapeWorkers,
		NoDB:     c.NoDB,
		Enrich:   !c.NoEnrich,
		Progress: c.Progress,
		ShowURLs: c.URLs,
	}
	if c.CSV {
		opts.CSVDir = d.Config.DataDir
	}

	p := d.Pipeline()
	if c.All {
		results, err := p.RunAll(ctx, app.AllKeys(time.Now().Year()), opts)
		d.Logger.Info("Scrape finished", "charts", len(results))
		return err
	}

	res, err := p.Run(ctx, c.Key(time.Now()), opts)
	if err != nil {
		return err
	}
	if res.Report != nil {
		d.Logger.Info("Scrape loaded", "run_id", res.Report.RunID, "chart_id", res.Report.ChartID, "rows", res.Report.Rows)
	}
	return nil
}

type ServeCmd struct {
	Port string `help:"Port to listen on. Overrides PORT."`
}

func (c *ServeCmd) Run(d *deps) error {
	port := d.Config.Port
	if c.Port != "" {
		port = c.Port
	}

	w := worker.NewWorker(d.Pipeline(), d.Config.Schedule, d.Config.ScheduleInterval, app.RunOptions{
		Workers:  d.Config.ScrapeWorkers,
		Enrich:  true,
	}, d.Logger)
	w.Start()
	defer w.Stop()

	h := httpapp.NewHandler(d.DB, d.Logger)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpapp.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		d.Logger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	d.Logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	d.Logger.Info("Server exiting")
	return nil
}

type ExportCmd struct {
	ChartID int64  `arg:"" help:"Stored chart id."`
	Out     string `short:"o" help:"Output file. Writes to stdout when empty."`
}

func (c *ExportCmd) Run(d *deps) error {
	ctx := context.Background()

	chart, err := d.DB.GetChart(ctx, c.ChartID)
	if err != nil {
		return err
	}
	rows, err := d.DB.ListChartHistory(ctx, chart.ID, 0, 0)
	if err != nil {
		return err
	}

	if c.Out == "" {
		return export.WriteHistory(os.Stdout, rows)
	}
	if err := export.SaveFile(c.Out, func(w io.Writer) error {
		return export.WriteHistory(w, rows)
	}); err != nil {
		return err
	}
	d.Logger.Info("History exported", "chart", chart.String(), "rows", len(rows), "path", c.Out)
	return nil
}
