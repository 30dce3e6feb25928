// Package loader reconciles a scraped batch against the store in one transaction.
package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cesargomez89/topalbums/internal/constants"
	"github.com/cesargomez89/topalbums/internal/domain"
	"github.com/cesargomez89/topalbums/internal/lock"
	"github.com/cesargomez89/topalbums/internal/logger"
	"github.com/cesargomez89/topalbums/internal/store"
)

// Step names the stage of the batch that failed.
type Step string

const (
	StepLock        Step = "lock"
	StepChart       Step = "chart"
	StepValidate    Step = "validate"
	StepArtist      Step = "artist"
	StepPublisher   Step = "publisher"
	StepSummary     Step = "summary"
	StepGenres      Step = "genres"
	StepMarkets     Step = "markets"
	StepAlbum       Step = "album"
	StepGenreLinks  Step = "genre_links"
	StepMarketLinks Step = "market_links"
	StepHistory     Step = "history"
	StepTransaction Step = "transaction"
)

// BatchError reports where a batch failed. Row is 1-based; zero means the
// failure happened outside the per-row loop.
type BatchError struct {
	Err   error
	Album string
	Step  Step
	Row   int
}

func (e *BatchError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("load batch: %s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("load batch: row %d (%q): %s: %v", e.Row, e.Album, e.Step, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// Report summarizes a committed batch.
type Report struct {
	RunID       string          `json:"run_id"`
	Chart       domain.ChartKey `json:"chart"`
	HistoryIDs  []int64         `json:"history_ids"`
	ChartID     int64           `json:"chart_id"`
	Duration    time.Duration   `json:"duration"`
	Rows        int             `json:"rows"`
	GenreLinks  int             `json:"genre_links"`
	MarketLinks int             `json:"market_links"`
}

type Options struct {
	Logger *logger.Logger
	Locker lock.Locker
	Policy store.AttributePolicy
}

type Loader struct {
	db     *store.DB
	log    *logger.Logger
	locker lock.Locker
	policy store.AttributePolicy
}

func New(db *store.DB, opts Options) *Loader {
	l := &Loader{
		db:     db,
		log:    opts.Logger,
		locker: opts.Locker,
		policy: opts.Policy,
	}
	if l.log == nil {
		l.log = logger.Default()
	}
	if l.locker == nil {
		l.locker = lock.Nop{}
	}
	l.log = l.log.WithComponent("loader")
	return l
}

// Load writes the whole batch or nothing. Records are processed in order;
// the first failure rolls the transaction back and is returned as a *BatchError.
func (l *Loader) Load(ctx context.Context, batch domain.Batch) (*Report, error) {
	start := time.Now()
	report := &Report{
		RunID: uuid.NewString(),
		Chart: batch.Key,
	}
	log := l.log.WithBatch(report.RunID, batch.Key.String())

	held, err := l.locker.Obtain(ctx, constants.WriterLock)
	if err != nil {
		return nil, &BatchError{Step: StepLock, Err: err}
	}
	defer func() {
		if rErr := held.Release(context.WithoutCancel(ctx)); rErr != nil {
			log.Warn("Failed to release writer lock", "error", rErr)
		}
	}()

	ids := newIDMemo()

	err = l.db.RunInTx(ctx, func(tx *store.DB) error {
		chartID, err := tx.ResolveChart(ctx, batch.Key)
		if err != nil {
			return &BatchError{Step: StepChart, Err: err}
		}
		report.ChartID = chartID

		for i := range batch.Records {
			rec := batch.Records[i]
			rec.Normalize()

			step, err := l.loadRow(ctx, tx, ids, chartID, &rec, report)
			if err != nil {
				return &BatchError{Row: i + 1, Album: rec.Name, Step: step, Err: err}
			}
			report.Rows++
		}
		return nil
	})
	if err != nil {
		var bErr *BatchError
		if !errors.As(err, &bErr) {
			bErr = &BatchError{Step: StepTransaction, Err: err}
		}
		log.Error("Batch rolled back", "row", bErr.Row, "step", bErr.Step, "error", bErr.Err)
		return nil, bErr
	}

	report.Duration = time.Since(start)
	log.Info("Batch committed",
		"chart_id", report.ChartID,
		"rows", report.Rows,
		"genre_links", report.GenreLinks,
		"market_links", report.MarketLinks,
		"duration", report.Duration,
	)
	return report, nil
}

func (l *Loader) loadRow(ctx context.Context, tx *store.DB, ids *idMemo, chartID int64, rec *domain.AlbumRecord, report *Report) (Step, error) {
	if err := rec.Validate(); err != nil {
		return StepValidate, err
	}

	artistID, err := ids.resolve("artist", rec.ArtistName, func() (int64, error) {
		return tx.ResolveArtist(ctx, domain.Artist{
			Name:        rec.ArtistName,
			ProfileLink: rec.ArtistLink,
			Popularity:  rec.ArtistPopularity,
			Followers:   rec.ArtistFollowers,
		}, l.policy)
	})
	if err != nil {
		return StepArtist, err
	}

	var publisherID *int64
	if rec.PublisherName != nil {
		id, err := ids.resolve("publisher", *rec.PublisherName, func() (int64, error) {
			return tx.ResolvePublisher(ctx, domain.Publisher{Name: *rec.PublisherName, ProfileLink: rec.PublisherLink})
		})
		if err != nil {
			return StepPublisher, err
		}
		publisherID = &id
	}

	var summaryID *int64
	if rec.Summary != nil {
		id, err := ids.resolve("summary", *rec.Summary, func() (int64, error) {
			return tx.ResolveSummary(ctx, *rec.Summary)
		})
		if err != nil {
			return StepSummary, err
		}
		summaryID = &id
	}

	genreIDs := make([]int64, 0, len(rec.Genres))
	for _, name := range rec.Genres {
		id, err := ids.resolve("genre", name, func() (int64, error) {
			return tx.ResolveGenre(ctx, name)
		})
		if err != nil {
			return StepGenres, err
		}
		genreIDs = append(genreIDs, id)
	}

	marketIDs := make([]int64, 0, len(rec.Markets))
	for _, code := range rec.Markets {
		id, err := ids.resolve("market", code, func() (int64, error) {
			return tx.ResolveMarket(ctx, code)
		})
		if err != nil {
			return StepMarkets, err
		}
		marketIDs = append(marketIDs, id)
	}

	albumID, err := tx.ResolveAlbum(ctx, rec, artistID, publisherID, summaryID)
	if err != nil {
		return StepAlbum, err
	}

	n, err := tx.EnsureLinks(ctx, albumID, genreIDs, store.LinkGenres)
	if err != nil {
		return StepGenreLinks, err
	}
	report.GenreLinks += n

	n, err = tx.EnsureLinks(ctx, albumID, marketIDs, store.LinkMarkets)
	if err != nil {
		return StepMarketLinks, err
	}
	report.MarketLinks += n

	historyID, err := tx.AppendHistory(ctx, domain.HistoryEntry{
		ChartID:       chartID,
		AlbumID:       albumID,
		Rank:          rec.Rank,
		Metascore:     rec.Metascore,
		UserScore:     rec.UserScore,
		CriticReviews: rec.CriticReviews,
		UserReviews:   rec.UserReviews,
	})
	if err != nil {
		return StepHistory, err
	}
	report.HistoryIDs = append(report.HistoryIDs, historyID)

	l.log.Debug("Row loaded", "rank", rec.Rank, "album", rec.Name, "album_id", albumID, "history_id", historyID)
	return "", nil
}
