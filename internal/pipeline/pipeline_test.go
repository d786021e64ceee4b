package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEntries(n int) []models.PaperEntry {
	entries := make([]models.PaperEntry, n)
	for i := range entries {
		entries[i] = models.PaperEntry{Title: fmt.Sprintf("Paper %d", i), SourceURL: fmt.Sprintf("https://x.org/%d.pdf", i)}
	}
	return entries
}

func downloaded(_ context.Context, e models.PaperEntry) (models.PaperOutcome, int64) {
	return models.PaperOutcome{Entry: e, Status: models.PaperDownloaded}, 10
}

func TestRun_Empty(t *testing.T) {
	res, err := Run(context.Background(), nil, HandlerFunc(downloaded), Options{Logger: zerolog.Nop()})
	assert.ErrorIs(t, err, models.ErrNothingToDo)
	require.NotNil(t, res)
	assert.Zero(t, res.Progress.Total)
}

func TestRun_Sequential(t *testing.T) {
	entries := makeEntries(5)
	var order []string
	var progress []models.RunProgress

	handler := HandlerFunc(func(ctx context.Context, e models.PaperEntry) (models.PaperOutcome, int64) {
		order = append(order, e.Title)
		return downloaded(ctx, e)
	})
	res, err := Run(context.Background(), entries, handler, Options{
		Logger:   zerolog.Nop(),
		Progress: func(p models.RunProgress) { progress = append(progress, p) },
	})
	require.NoError(t, err)

	for i, e := range entries {
		assert.Equal(t, e.Title, order[i])
		assert.Equal(t, e.Title, res.Outcomes[i].Entry.Title)
		assert.Equal(t, models.RunProgress{Completed: i + 1, Total: 5}, progress[i])
	}
	assert.Equal(t, "5/5", res.Progress.String())
	assert.Equal(t, 5, res.Stats.Downloaded)
	assert.Equal(t, int64(50), res.Stats.TotalBytes)
	assert.False(t, res.Stopped)
}

func TestRun_Parallel(t *testing.T) {
	entries := makeEntries(20)
	var active, peak int32
	var calls int32

	handler := HandlerFunc(func(ctx context.Context, e models.PaperEntry) (models.PaperOutcome, int64) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		atomic.AddInt32(&calls, 1)
		return downloaded(ctx, e)
	})

	var last models.RunProgress
	res, err := Run(context.Background(), entries, handler, Options{
		Parallel: true,
		Workers:  4,
		Logger:   zerolog.Nop(),
		Progress: func(p models.RunProgress) { last = p },
	})
	require.NoError(t, err)
	assert.Equal(t, int32(20), atomic.LoadInt32(&calls))
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(4))
	assert.Equal(t, models.RunProgress{Completed: 20, Total: 20}, last)
	assert.Equal(t, 20, res.Stats.Succeeded())
	for i, o := range res.Outcomes {
		assert.Equal(t, entries[i].Title, o.Entry.Title)
	}
}

func TestRun_FailureIsolated(t *testing.T) {
	handler := HandlerFunc(func(ctx context.Context, e models.PaperEntry) (models.PaperOutcome, int64) {
		if e.Title == "Paper 1" {
			return models.PaperOutcome{Entry: e, Status: models.PaperFailed, Error: "boom"}, 0
		}
		return downloaded(ctx, e)
	})
	res, err := Run(context.Background(), makeEntries(3), handler, Options{Parallel: true, Workers: 2, Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Failed)
	assert.Equal(t, 2, res.Stats.Downloaded)
	assert.Equal(t, 3, res.Progress.Completed)
}

func TestRun_Stop(t *testing.T) {
	token := NewToken()
	handler := HandlerFunc(func(ctx context.Context, e models.PaperEntry) (models.PaperOutcome, int64) {
		if e.Title == "Paper 1" {
			token.Stop()
		}
		return downloaded(ctx, e)
	})

	res, err := Run(context.Background(), makeEntries(5), handler, Options{Token: token, Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.True(t, res.Stopped)
	assert.Equal(t, 2, res.Stats.Downloaded)
	assert.Equal(t, 3, res.Stats.Cancelled)
	assert.Equal(t, models.PaperCancelled, res.Outcomes[4].Status)
	assert.Equal(t, "2/5", res.Progress.String())
	assert.Equal(t, Stopped, token.State())
}

func TestRun_PauseResume(t *testing.T) {
	token := NewToken()
	token.Pause()

	var calls int32
	handler := HandlerFunc(func(ctx context.Context, e models.PaperEntry) (models.PaperOutcome, int64) {
		atomic.AddInt32(&calls, 1)
		return downloaded(ctx, e)
	})

	done := make(chan *Result, 1)
	go func() {
		res, _ := Run(context.Background(), makeEntries(3), handler, Options{Parallel: true, Workers: 2, Token: token, Logger: zerolog.Nop()})
		done <- res
	}()

	require.Eventually(t, func() bool { return token.State() == Paused }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&calls))

	token.Resume()
	select {
	case res := <-done:
		assert.Equal(t, 3, res.Stats.Downloaded)
		assert.False(t, res.Stopped)
	case <-time.After(5 * time.Second):
		t.Fatal("恢复后任务未完成")
	}
}

func TestRun_CancelWhilePaused(t *testing.T) {
	token := NewToken()
	token.Pause()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan *Result, 1)
	go func() {
		res, _ := Run(ctx, makeEntries(2), HandlerFunc(downloaded), Options{Token: token, Logger: zerolog.Nop()})
		done <- res
	}()

	require.Eventually(t, func() bool { return token.State() == Paused }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case res := <-done:
		assert.True(t, res.Stopped)
		assert.Equal(t, 2, res.Stats.Cancelled)
	case <-time.After(5 * time.Second):
		t.Fatal("取消后任务未退出")
	}
}

func TestToken(t *testing.T) {
	t.Run("状态转换", func(t *testing.T) {
		token := NewToken()
		assert.Equal(t, Running, token.State())

		token.Pause()
		assert.Equal(t, PauseRequested, token.State())

		token.Resume()
		assert.Equal(t, Running, token.State())

		token.Stop()
		assert.Equal(t, StopRequested, token.State())

		token.Pause()
		assert.Equal(t, StopRequested, token.State())

		token.finish()
		assert.Equal(t, Stopped, token.State())
		assert.Equal(t, "stopped", token.State().String())
	})

	t.Run("停止唤醒所有暂停的worker", func(t *testing.T) {
		token := NewToken()
		token.Pause()

		var wg sync.WaitGroup
		results := make(chan bool, 3)
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- token.Checkpoint(context.Background())
			}()
		}

		require.Eventually(t, func() bool { return token.State() == Paused }, time.Second, 5*time.Millisecond)
		token.Stop()
		wg.Wait()
		close(results)
		for ok := range results {
			assert.False(t, ok)
		}
	})
}

func TestMetrics(t *testing.T) {
	m := NewMetrics("icml")
	m.SetWorkers(2)
	m.SetListingEntries(3)
	m.ObservePaper(models.PaperOutcome{Status: models.PaperDownloaded, Slides: true}, 100, time.Second)
	m.ObservePaper(models.PaperOutcome{Status: models.PaperFailed}, 0, time.Second)
	m.ObserveFetch("GET", 200, 100, nil)
	m.ObserveFetch("GET", 0, 0, fmt.Errorf("dial tcp: refused"))

	path := filepath.Join(t.TempDir(), "paperdl.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "paperdl_papers_total")
	assert.Contains(t, text, `status="downloaded"`)
	assert.Contains(t, text, `status="failed"`)
	assert.Contains(t, text, `code="error"`)
	assert.Contains(t, text, `venue="icml"`)
	assert.Contains(t, text, "paperdl_bytes_written_total")
}
