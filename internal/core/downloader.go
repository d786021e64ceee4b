package core

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/RecoveryAshes/PaperDownloader/internal/crawlers"
	"github.com/RecoveryAshes/PaperDownloader/internal/listing"
	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/RecoveryAshes/PaperDownloader/internal/pipeline"
	"github.com/RecoveryAshes/PaperDownloader/internal/processor"
	"github.com/RecoveryAshes/PaperDownloader/internal/utils"
	"github.com/RecoveryAshes/PaperDownloader/internal/venue"
)

// DownloaderOptions 下载协调器选项
type DownloaderOptions struct {
	MaxWorkers  int                       // 并行模式的worker上限
	DryRun      bool                      // 只解析列表,不下载
	ReportDir   string                    // 非空时写JSON报告
	MetricsFile string                    // 非空时写Prometheus textfile
	Token       *pipeline.Token           // 暂停/停止控制
	Progress    pipeline.ProgressFunc     // 进度回调
	Registry    *venue.Registry           // 为nil时使用内置注册表
	Monitor     *crawlers.ResourceMonitor // 为nil时使用默认配置
}

// fetchObservable 支持请求回调的获取器
type fetchObservable interface {
	SetObserver(observer crawlers.FetchObserver)
}

// Downloader 单次下载任务的协调器
// 流程: 校验请求 → 构造列表URL → 解析列表 → 逐篇处理 → 报告
type Downloader struct {
	fetcher models.ResourceFetcher
	opts    DownloaderOptions
}

// NewDownloader 创建下载协调器
func NewDownloader(fetcher models.ResourceFetcher, opts DownloaderOptions) *Downloader {
	if opts.Registry == nil {
		opts.Registry = venue.Default()
	}
	if opts.Monitor == nil {
		opts.Monitor = crawlers.NewResourceMonitor(crawlers.DefaultResourceMonitorConfig())
	}
	if opts.MaxWorkers < 1 {
		opts.MaxWorkers = 1
	}
	return &Downloader{fetcher: fetcher, opts: opts}
}

// Prepare 校验请求并构造列表URL,不发起任何网络请求
// 返回的错误都是 *models.ConfigError
func (d *Downloader) Prepare(req *models.ListingRequest) (venue.Descriptor, string, error) {
	desc, err := d.opts.Registry.Get(req.VenueKey)
	if err != nil {
		utils.Errorf("Unsupported venue: %s", req.VenueKey)
		return venue.Descriptor{}, "", err
	}
	req.VenueKey = desc.Key

	warnings, err := req.Validate(desc.Kind)
	if err != nil {
		var ce *models.ConfigError
		if errors.As(err, &ce) && ce.Cause != nil {
			utils.Errorf("%v", ce.Cause)
		} else {
			utils.Errorf("%v", err)
		}
		return desc, "", err
	}
	for _, w := range warnings {
		utils.Warn(w)
	}

	listingURL, err := desc.ListingURL(desc.Params(*req))
	if err != nil {
		utils.Errorf("配置错误: %s 不支持该参数组合: %v", desc.DisplayName, err)
		return desc, "", err
	}
	return desc, listingURL, nil
}

// Run 执行一次下载任务
//
// 配置错误和保存目录创建失败直接返回错误,不产生任何请求;
// 列表为空时返回 models.ErrNothingToDo;单篇论文的失败只记录在报告中。
func (d *Downloader) Run(ctx context.Context, req models.ListingRequest) (*models.RunReport, error) {
	desc, listingURL, err := d.Prepare(&req)
	if err != nil {
		return nil, err
	}

	report := models.NewRunReport(desc.Key, desc.Kind, redactRequest(req))
	report.DisplayName = desc.DisplayName
	report.ListingURL = listingURL
	report.Status = models.RunStatusRunning

	logger := utils.WithRunID(report.RunID)
	logger.Info().Msgf("🚀 开始下载: %s (%s)", desc.DisplayName, listingURL)

	if !d.opts.DryRun {
		if err := os.MkdirAll(req.SaveDir, 0755); err != nil {
			err = fmt.Errorf("创建保存目录失败 [%s]: %w", req.SaveDir, err)
			logger.Error().Err(err).Msg("任务中止")
			report.Error = err.Error()
			report.Finish(models.RunStatusFailed)
			return report, err
		}
	}

	var metrics *pipeline.Metrics
	if d.opts.MetricsFile != "" {
		metrics = pipeline.NewMetrics(desc.Key)
		if obs, ok := d.fetcher.(fetchObservable); ok {
			obs.SetObserver(metrics.ObserveFetch)
			defer obs.SetObserver(nil)
		}
	}

	entries, err := listing.NewResolver(d.fetcher, logger).Resolve(ctx, desc, req)
	if err != nil {
		report.Error = err.Error()
	}
	report.Stats.Total = len(entries)
	if metrics != nil {
		metrics.SetListingEntries(len(entries))
	}

	if len(entries) == 0 {
		logger.Warn().Msg(models.ErrNothingToDo.Error())
		report.Finish(models.RunStatusEmpty)
		d.writeArtifacts(report, metrics)
		return report, models.ErrNothingToDo
	}

	proc, err := processor.New(d.fetcher, desc, &req, logger)
	if err != nil {
		report.Error = err.Error()
		report.Finish(models.RunStatusFailed)
		return report, err
	}

	if d.opts.DryRun {
		d.dryRun(report, proc, entries)
		return report, nil
	}

	workers := 1
	if req.Parallel {
		d.opts.Monitor.LogStatus()
		workers = d.opts.Monitor.CalculateMaxWorkers(d.opts.MaxWorkers)
	}

	result, err := pipeline.Run(ctx, entries, proc, pipeline.Options{
		Parallel: req.Parallel,
		Workers:  workers,
		Token:    d.opts.Token,
		Progress: d.opts.Progress,
		Metrics:  metrics,
		Logger:   logger,
	})
	if err != nil {
		report.Error = err.Error()
		report.Finish(models.RunStatusFailed)
		return report, err
	}

	report.Stats = result.Stats
	report.Progress = result.Progress
	report.Papers = result.Outcomes

	status := models.RunStatusCompleted
	if result.Stopped {
		status = models.RunStatusStopped
	}
	report.Finish(status)

	d.logSummary(report)
	d.writeArtifacts(report, metrics)
	logger.Info().Msg("Task Done!")
	return report, nil
}

// dryRun 只列出将要处理的论文
func (d *Downloader) dryRun(report *models.RunReport, proc *processor.Processor, entries []models.PaperEntry) {
	matched := 0
	for _, entry := range entries {
		outcome := models.PaperOutcome{Entry: entry, Status: models.PaperFiltered}
		if proc.Matches(entry.Title) {
			matched++
			outcome.Status = models.PaperCancelled
			utils.Infof("[dry-run] %s -> %s", entry.Title, entry.SourceURL)
		}
		report.Papers = append(report.Papers, outcome)
	}
	report.Progress = models.RunProgress{Completed: 0, Total: len(entries)}
	report.Finish(models.RunStatusCompleted)
	utils.Infof("[dry-run] 共 %d 篇论文,其中 %d 篇将被下载", len(entries), matched)
}

// logSummary 输出统计
func (d *Downloader) logSummary(report *models.RunReport) {
	s := report.Stats
	utils.Infof("📊 进度: %s", report.Progress)
	utils.Infof("✅ 新下载: %d, 已存在: %d, 幻灯片: %d", s.Downloaded, s.Existing, s.Slides)
	if s.Filtered > 0 {
		utils.Infof("🔍 关键词过滤: %d", s.Filtered)
	}
	if s.Failed > 0 {
		utils.Warnf("❌ 失败: %d", s.Failed)
	}
	if s.Cancelled > 0 {
		utils.Warnf("⏹️  未处理: %d", s.Cancelled)
	}
	utils.Infof("📦 总大小: %.2f MB, ⏱️  耗时: %.2f秒", float64(s.TotalBytes)/(1024*1024), report.Duration)
}

// writeArtifacts 写出报告和指标文件,失败只记录警告
func (d *Downloader) writeArtifacts(report *models.RunReport, metrics *pipeline.Metrics) {
	if d.opts.ReportDir != "" {
		path, err := utils.NewReporter(d.opts.ReportDir).GenerateReport(report)
		if err != nil {
			utils.Warnf("生成报告失败: %v", err)
		} else {
			utils.Infof("📄 报告已保存: %s", path)
		}
	}
	if metrics != nil {
		if err := metrics.WriteTextfile(d.opts.MetricsFile); err != nil {
			utils.Warnf("%v", err)
		}
	}
}

// redactRequest 报告中的代理地址去掉密码
func redactRequest(req models.ListingRequest) models.ListingRequest {
	req.Proxy.HTTP = utils.RedactURL(req.Proxy.HTTP)
	req.Proxy.HTTPS = utils.RedactURL(req.Proxy.HTTPS)
	return req
}
