package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/RecoveryAshes/PaperDownloader/internal/utils"
)

// batchFile 批量任务文件格式
//
//	jobs:
//	  - venue: icml
//	    year: 2021
//	  - venue: jmlr
//	    volume: 22
//	    keyword: graph
type batchFile struct {
	Jobs []models.BatchJob `yaml:"jobs"`
}

// LoadBatchJobs 从YAML文件读取批量任务,并为每个任务分配ID
func LoadBatchJobs(path string) ([]models.BatchJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.ConfigError{Field: "batch", FilePath: path, Cause: err}
	}

	var file batchFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &models.ConfigError{Field: "batch", FilePath: path, Cause: fmt.Errorf("解析YAML失败: %w", err)}
	}
	if len(file.Jobs) == 0 {
		return nil, &models.ConfigError{Field: "batch", FilePath: path, Cause: errors.New("任务列表为空")}
	}

	for i := range file.Jobs {
		job := &file.Jobs[i]
		job.Venue = strings.ToLower(strings.TrimSpace(job.Venue))
		if job.Venue == "" {
			return nil, &models.ConfigError{Field: "batch", FilePath: path, Cause: fmt.Errorf("第%d个任务缺少venue", i+1)}
		}
		job.ID = models.NewID()
	}
	return file.Jobs, nil
}

// BatchDownloader 批量下载器,按顺序执行多个任务
type BatchDownloader struct {
	fetcher       models.ResourceFetcher
	template      models.ListingRequest
	opts          DownloaderOptions
	batchDelay    time.Duration
	continueOnErr bool
}

// NewBatchDownloader 创建批量下载器
// template 提供保存目录、间隔、代理等公共参数,每个任务覆盖场馆/年份/卷号/关键词
func NewBatchDownloader(fetcher models.ResourceFetcher, template models.ListingRequest, opts DownloaderOptions, batchDelay time.Duration, continueOnErr bool) *BatchDownloader {
	return &BatchDownloader{
		fetcher:       fetcher,
		template:      template,
		opts:          opts,
		batchDelay:    batchDelay,
		continueOnErr: continueOnErr,
	}
}

// Run 依次执行所有任务
func (bd *BatchDownloader) Run(ctx context.Context, jobs []models.BatchJob) (*models.BatchSummary, error) {
	utils.Infof("🚀 开始批量下载: %d个任务", len(jobs))

	summary := &models.BatchSummary{
		TotalJobs: len(jobs),
		Results:   make([]models.BatchResult, 0, len(jobs)),
	}

	startTime := time.Now()
	downloader := NewDownloader(bd.fetcher, bd.opts)

	for i, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		utils.Infof("==================== [%d/%d] ====================", i+1, len(jobs))
		utils.Infof("任务: %s", job.Label())

		result := bd.runJob(ctx, downloader, job)
		summary.Results = append(summary.Results, result)

		if result.Success {
			summary.SuccessCount++
			summary.TotalFiles += result.Stats.Downloaded + result.Stats.NewSlides
			summary.TotalSize += result.Stats.TotalBytes
		} else {
			summary.FailCount++
			utils.Errorf("❌ 任务失败: %s", result.Error)

			if !bd.continueOnErr {
				utils.Warn("批量下载中止 (--continue-on-error=false)")
				break
			}
		}

		if bd.opts.Token != nil && !bd.opts.Token.Checkpoint(ctx) {
			utils.Warn("⏹️  批量下载已停止")
			break
		}

		// 最后一个任务不需要等待
		if i < len(jobs)-1 && bd.batchDelay > 0 {
			utils.Debugf("等待 %.0f 秒后处理下一个任务...", bd.batchDelay.Seconds())
			select {
			case <-ctx.Done():
			case <-time.After(bd.batchDelay):
			}
		}
	}

	summary.TotalDuration = time.Since(startTime).Seconds()
	bd.printSummary(summary)

	if bd.opts.ReportDir != "" {
		batchID := models.NewID()
		if path, err := utils.NewReporter(bd.opts.ReportDir).GenerateBatchReport(batchID, summary); err != nil {
			utils.Warnf("生成批量报告失败: %v", err)
		} else {
			utils.Infof("📄 批量报告已保存: %s", path)
		}
	}

	return summary, ctx.Err()
}

// runJob 执行单个任务
// 列表为空不算失败
func (bd *BatchDownloader) runJob(ctx context.Context, downloader *Downloader, job models.BatchJob) models.BatchResult {
	result := models.BatchResult{
		Job:         job,
		ProcessedAt: time.Now(),
	}
	startTime := time.Now()

	req := bd.requestFor(job)
	report, err := downloader.Run(ctx, req)
	if report != nil {
		result.Stats = report.Stats
	}
	result.Duration = time.Since(startTime).Seconds()

	switch {
	case err == nil, errors.Is(err, models.ErrNothingToDo):
		result.Success = true
	default:
		result.Error = err.Error()
	}
	return result
}

// requestFor 用模板补全任务参数
func (bd *BatchDownloader) requestFor(job models.BatchJob) models.ListingRequest {
	req := bd.template
	req.VenueKey = job.Venue
	req.Year = job.Year
	req.Volume = job.Volume
	if job.Keyword != "" {
		req.Keyword = job.Keyword
	}
	if job.SaveDir != "" {
		req.SaveDir = job.SaveDir
	}
	return req
}

// printSummary 打印批量下载摘要
func (bd *BatchDownloader) printSummary(summary *models.BatchSummary) {
	utils.Info("==================================================")
	utils.Info("📊 批量下载摘要")
	utils.Info("==================================================")
	utils.Infof("总任务数: %d", summary.TotalJobs)
	utils.Infof("✅ 成功: %d", summary.SuccessCount)
	utils.Infof("❌ 失败: %d", summary.FailCount)
	utils.Infof("📦 总文件数: %d", summary.TotalFiles)
	utils.Infof("📦 总大小: %.2f MB", float64(summary.TotalSize)/(1024*1024))
	utils.Infof("⏱️  总耗时: %.2f秒", summary.TotalDuration)
	utils.Info("==================================================")

	if summary.FailCount > 0 {
		utils.Warn("失败的任务:")
		for _, result := range summary.Results {
			if !result.Success {
				utils.Warnf("  - %s: %s", result.Job.Label(), result.Error)
			}
		}
	}
}
