package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cesargomez89/topalbums/internal/app"
	"github.com/cesargomez89/topalbums/internal/domain"
	"github.com/cesargomez89/topalbums/internal/logger"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls map[domain.ChartKey]int
	fail  domain.ChartKey
	panic domain.ChartKey
	block bool
}

func (f *fakeRunner) Run(ctx context.Context, key domain.ChartKey, _ app.RunOptions) (*app.Result, error) {
	f.mu.Lock()
	f.calls[key]++
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if key == f.panic {
		panic("parser blew up")
	}
	if key == f.fail {
		return nil, errors.New("status 503")
	}
	return &app.Result{Key: key, Records: 1}, nil
}

func (f *fakeRunner) count(key domain.ChartKey) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

var (
	keyA = domain.ChartKey{Filter: "year", Year: 2022, Sort: "meta_score"}
	keyB = domain.ChartKey{Filter: "all", Sort: "user_score"}
	keyC = domain.ChartKey{Filter: "90day", Sort: "meta_score"}
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWorker_RunsEveryChartEachTick(t *testing.T) {
	r := &fakeRunner{calls: map[domain.ChartKey]int{}, fail: keyA, panic: keyB}
	w := NewWorker(r, []domain.ChartKey{keyA, keyB, keyC}, 10*time.Millisecond, app.RunOptions{}, logger.Discard())

	w.Start()
	waitFor(t, func() bool { return r.count(keyC) >= 2 })
	w.Stop()

	if r.count(keyA) < 2 || r.count(keyB) < 2 {
		t.Errorf("Expected failing charts to be retried on every pass, got %v", r.calls)
	}
}

func TestWorker_StopCancelsRun(t *testing.T) {
	r := &fakeRunner{calls: map[domain.ChartKey]int{}, block: true}
	w := NewWorker(r, []domain.ChartKey{keyA, keyB}, time.Hour, app.RunOptions{}, logger.Discard())

	w.Start()
	waitFor(t, func() bool { return r.count(keyA) == 1 })

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	if r.count(keyB) != 0 {
		t.Errorf("Expected no run after cancellation, got %d", r.count(keyB))
	}
}

func TestWorker_NoKeys(t *testing.T) {
	w := NewWorker(&fakeRunner{calls: map[domain.ChartKey]int{}}, nil, time.Millisecond, app.RunOptions{}, logger.Discard())
	w.Start()
	w.Stop()
}
