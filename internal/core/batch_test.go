package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/RecoveryAshes/PaperDownloader/internal/crawlers/fetchertest"
	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/RecoveryAshes/PaperDownloader/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJobs(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadBatchJobs(t *testing.T) {
	t.Run("解析任务列表", func(t *testing.T) {
		path := writeJobs(t, `jobs:
  - venue: ICML
    year: 2021
  - venue: jmlr
    volume: 22
    keyword: graph
    save_dir: jmlr22
`)
		jobs, err := LoadBatchJobs(path)
		require.NoError(t, err)
		require.Len(t, jobs, 2)

		assert.Equal(t, "icml", jobs[0].Venue)
		assert.Equal(t, 2021, jobs[0].Year)
		assert.Equal(t, 22, jobs[1].Volume)
		assert.Equal(t, "graph", jobs[1].Keyword)
		assert.Equal(t, "jmlr22", jobs[1].SaveDir)
		assert.NotEmpty(t, jobs[0].ID)
		assert.NotEqual(t, jobs[0].ID, jobs[1].ID)
	})

	t.Run("文件不存在", func(t *testing.T) {
		_, err := LoadBatchJobs(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.True(t, models.IsConfigError(err))
	})

	t.Run("空列表", func(t *testing.T) {
		_, err := LoadBatchJobs(writeJobs(t, "jobs: []\n"))
		assert.True(t, models.IsConfigError(err))
	})

	t.Run("缺少venue", func(t *testing.T) {
		_, err := LoadBatchJobs(writeJobs(t, "jobs:\n  - year: 2021\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "第1个任务")
	})

	t.Run("YAML格式错误", func(t *testing.T) {
		_, err := LoadBatchJobs(writeJobs(t, "jobs: [venue: icml\n"))
		assert.True(t, models.IsConfigError(err))
	})
}

func TestBatchDownloader_Run(t *testing.T) {
	jobs := []models.BatchJob{
		models.NewBatchJob("icml", 2021, 0),
		models.NewBatchJob("eccv", 2015, 0),
		models.NewBatchJob("icml", 2021, 0),
	}

	t.Run("失败后继续", func(t *testing.T) {
		saveDir := t.TempDir()
		reportDir := t.TempDir()
		bd := NewBatchDownloader(icmlStub(), models.ListingRequest{SaveDir: saveDir},
			DownloaderOptions{ReportDir: reportDir}, 0, true)

		summary, err := bd.Run(context.Background(), jobs)
		require.NoError(t, err)

		assert.Equal(t, 3, summary.TotalJobs)
		assert.Equal(t, 2, summary.SuccessCount)
		assert.Equal(t, 1, summary.FailCount)
		assert.Equal(t, 1, summary.TotalFiles, "第二次运行文件已存在")
		require.Len(t, summary.Results, 3)
		assert.False(t, summary.Results[1].Success)
		assert.NotEmpty(t, summary.Results[1].Error)

		matches, err := filepath.Glob(filepath.Join(reportDir, "batch_*.json"))
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	})

	t.Run("失败后中止", func(t *testing.T) {
		bd := NewBatchDownloader(icmlStub(), models.ListingRequest{SaveDir: t.TempDir()},
			DownloaderOptions{}, 0, false)

		summary, err := bd.Run(context.Background(), jobs)
		require.NoError(t, err)
		assert.Len(t, summary.Results, 2)
		assert.Equal(t, 1, summary.FailCount)
	})

	t.Run("停止后不再执行后续任务", func(t *testing.T) {
		token := pipeline.NewToken()
		token.Stop()
		bd := NewBatchDownloader(icmlStub(), models.ListingRequest{SaveDir: t.TempDir()},
			DownloaderOptions{Token: token}, 0, true)

		summary, err := bd.Run(context.Background(), jobs)
		require.NoError(t, err)
		assert.Len(t, summary.Results, 1)
	})

	t.Run("任务参数覆盖模板", func(t *testing.T) {
		bd := NewBatchDownloader(nil, models.ListingRequest{SaveDir: "paper", Keyword: "tree", SleepSeconds: 3}, DownloaderOptions{}, 0, true)
		job := models.BatchJob{Venue: "jmlr", Volume: 22, SaveDir: "jmlr22"}

		req := bd.requestFor(job)
		assert.Equal(t, "jmlr", req.VenueKey)
		assert.Equal(t, 22, req.Volume)
		assert.Equal(t, "jmlr22", req.SaveDir)
		assert.Equal(t, "tree", req.Keyword)
		assert.Equal(t, 3.0, req.SleepSeconds)
	})
}

func TestBatchDownloader_TotalFilesCountsNewSlides(t *testing.T) {
	const (
		listing = "https://dblp.org/db/conf/ndss/ndss2021.html"
		detail  = "https://www.ndss-symposium.org/ndss-paper/x/"
		paper   = "https://www.ndss-symposium.org/wp-content/uploads/x-paper.pdf"
		slides  = "https://www.ndss-symposium.org/wp-content/uploads/x-slides.pdf"
	)
	stub := fetchertest.New().
		Text(listing, `<html><body><ul class="publ-list"><li class="entry inproceedings">
  <nav class="publ"><ul><li class="drop-down"><div class="head"><a href="`+detail+`">view</a></div></li></ul></nav>
  <cite><span class="title">X: Attack.</span></cite>
</li></ul></body></html>`).
		Text(detail, `<a class="pdf-button" href="`+paper+`">Paper</a><a class="button-slides" href="`+slides+`">Slides</a>`).
		Bytes(paper, []byte("paper")).
		Bytes(slides, []byte("slides"))

	jobs := []models.BatchJob{
		models.NewBatchJob("ndss", 2021, 0),
		models.NewBatchJob("ndss", 2021, 0),
	}
	bd := NewBatchDownloader(stub, models.ListingRequest{SaveDir: t.TempDir()}, DownloaderOptions{}, 0, true)

	summary, err := bd.Run(context.Background(), jobs)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 2, summary.TotalFiles, "只统计第一次写入的论文和幻灯片")
	require.Len(t, summary.Results, 2)
	assert.Equal(t, 1, summary.Results[1].Stats.Slides)
	assert.Zero(t, summary.Results[1].Stats.NewSlides)
}
