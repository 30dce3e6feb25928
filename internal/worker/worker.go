// Package worker refreshes the scheduled charts on a fixed interval.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cesargomez89/topalbums/internal/app"
	"github.com/cesargomez89/topalbums/internal/domain"
	"github.com/cesargomez89/topalbums/internal/logger"
)

// Runner runs the pipeline for one chart. *app.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, key domain.ChartKey, opts app.RunOptions) (*app.Result, error)
}

var _ Runner = (*app.Pipeline)(nil)

type Worker struct {
	Runner   Runner
	Keys     []domain.ChartKey
	Options  app.RunOptions
	Interval time.Duration
	Logger   *logger.Logger
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewWorker(runner Runner, keys []domain.ChartKey, interval time.Duration, opts app.RunOptions, log *logger.Logger) *Worker {
	if log == nil {
		log = logger.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		Runner:   runner,
		Keys:     keys,
		Options:  opts,
		Interval: interval,
		Logger:   log.WithComponent("worker"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs every scheduled chart once, then again on each tick.
func (w *Worker) Start() {
	if len(w.Keys) == 0 {
		w.Logger.Info("No charts scheduled")
		return
	}
	w.Logger.Info("Starting worker", "charts", len(w.Keys), "interval", w.Interval)

	w.wg.Add(1)
	go w.loop()
}

// Stop cancels the running pass and waits for it to return.
func (w *Worker) Stop() {
	w.Logger.Info("Stopping worker")
	w.cancel()
	w.wg.Wait()
}

func (w *Worker) loop() {
	defer w.wg.Done()
	w.runPass()

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.runPass()
		}
	}
}

func (w *Worker) runPass() {
	failed := 0
	for _, key := range w.Keys {
		if w.ctx.Err() != nil {
			return
		}
		if err := w.runChart(key); err != nil {
			failed++
			w.Logger.Error("Scheduled run failed", "chart", key.String(), "error", err)
		}
	}
	w.Logger.Info("Scheduled pass finished", "charts", len(w.Keys), "failed", failed)
}

func (w *Worker) runChart(key domain.ChartKey) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	res, err := w.Runner.Run(w.ctx, key, w.Options)
	if err != nil {
		return err
	}
	w.Logger.Info("Scheduled run finished", "chart", key.String(), "records", res.Records)
	return nil
}
