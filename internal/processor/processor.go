// Package processor 处理单篇论文: 关键词过滤、定位文件、下载论文与幻灯片
package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/RecoveryAshes/PaperDownloader/internal/markup"
	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/RecoveryAshes/PaperDownloader/internal/utils"
	"github.com/RecoveryAshes/PaperDownloader/internal/venue"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Processor 单篇论文处理器,可被多个worker并发使用
type Processor struct {
	fetcher    models.ResourceFetcher
	descriptor venue.Descriptor
	params     venue.Params
	saveDir    string
	sleep      time.Duration
	keyword    *regexp.Regexp
	logger     zerolog.Logger
}

// New 根据请求创建处理器,请求应已通过校验
func New(fetcher models.ResourceFetcher, d venue.Descriptor, req *models.ListingRequest, logger zerolog.Logger) (*Processor, error) {
	keyword, err := req.KeywordPattern()
	if err != nil {
		return nil, err
	}
	return &Processor{
		fetcher:    fetcher,
		descriptor: d,
		params:     d.Params(*req),
		saveDir:    req.SaveDir,
		sleep:      time.Duration(req.SleepSeconds * float64(time.Second)),
		keyword:    keyword,
		logger:     logger,
	}, nil
}

// Matches 标题是否匹配关键词,未设置关键词时总是匹配
func (p *Processor) Matches(title string) bool {
	return p.keyword == nil || p.keyword.MatchString(title)
}

// loggerFrom 优先使用上下文中携带worker信息的logger
func (p *Processor) loggerFrom(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return p.logger
}

// Process 处理一篇论文,返回处理结果和写入的字节数
// 任何失败都只影响当前论文,不会向上返回错误
func (p *Processor) Process(ctx context.Context, entry models.PaperEntry) (models.PaperOutcome, int64) {
	logger := p.loggerFrom(ctx)
	outcome := models.PaperOutcome{Entry: entry}

	if !p.Matches(entry.Title) {
		logger.Info().Msgf("论文 %q 不包含所需关键词,跳过", entry.Title)
		outcome.Status = models.PaperFiltered
		return outcome, 0
	}

	logger.Info().Msgf("处理论文: %s", entry.Title)

	var written int64
	var err error
	if p.isDirectFile(ctx, entry.SourceURL) {
		written, err = p.processDirect(ctx, entry, &outcome, logger)
	} else {
		written, err = p.processDetail(ctx, entry, &outcome, logger)
	}

	switch {
	case ctx.Err() != nil:
		outcome.Status = models.PaperCancelled
		outcome.Error = ctx.Err().Error()
		return outcome, written
	case err != nil:
		outcome.Status = models.PaperFailed
		outcome.Error = err.Error()
	}

	// 只有尝试过下载才休眠
	if len(outcome.Targets) > 0 {
		p.pause(ctx)
	}
	return outcome, written
}

// isDirectFile URL本身或重定向后的地址以 .pdf 结尾
func (p *Processor) isDirectFile(ctx context.Context, rawURL string) bool {
	if utils.HasFileExtension(rawURL, DefaultExt) {
		return true
	}
	// HTTP状态错误时仍会返回已到达的地址
	final, err := p.fetcher.ResolveFinalURL(ctx, rawURL)
	if err != nil && final == "" {
		logger := p.loggerFrom(ctx)
		logger.Debug().Err(err).Str("url", rawURL).Msg("解析最终地址失败,按详情页处理")
		return false
	}
	return utils.HasFileExtension(final, DefaultExt)
}

// processDirect 列表链接就是论文文件
func (p *Processor) processDirect(ctx context.Context, entry models.PaperEntry, outcome *models.PaperOutcome, logger zerolog.Logger) (int64, error) {
	target := NewTarget(p.saveDir, entry.Title, entry.SourceURL, models.TargetPaper)
	outcome.Targets = append(outcome.Targets, target)

	logger.Info().Msgf("下载论文: %s", entry.SourceURL)
	n, existed, err := p.download(ctx, target, logger)
	if err != nil {
		return n, err
	}
	outcome.Status = paperStatus(existed)
	return n, nil
}

// processDetail 访问详情页,抽取论文和幻灯片地址
func (p *Processor) processDetail(ctx context.Context, entry models.PaperEntry, outcome *models.PaperOutcome, logger zerolog.Logger) (int64, error) {
	logger.Info().Msgf("获取详情页: %s", entry.SourceURL)
	content, err := p.fetcher.FetchText(ctx, entry.SourceURL)
	if err != nil {
		logger.Error().Err(err).Str("title", entry.Title).Msg("详情页获取失败")
		return 0, err
	}

	doc, err := markup.Parse(content)
	if err != nil {
		logger.Error().Err(err).Str("title", entry.Title).Msg("详情页解析失败")
		return 0, err
	}

	var fileURL string
	var ok bool
	if p.descriptor.Strategy.FileURL != nil {
		fileURL, ok = p.descriptor.Strategy.FileURL(doc, p.params)
	}
	if !ok {
		err := fmt.Errorf("%w: %s", models.ErrNoFileFound, entry.SourceURL)
		logger.Error().Str("title", entry.Title).Msg("详情页中未找到论文文件链接")
		return 0, err
	}

	var written int64
	paper := NewTarget(p.saveDir, entry.Title, utils.AbsoluteURL(entry.SourceURL, fileURL), models.TargetPaper)
	outcome.Targets = append(outcome.Targets, paper)

	logger.Info().Msgf("下载论文: %s", paper.URL)
	n, existed, paperErr := p.download(ctx, paper, logger)
	written += n
	if paperErr == nil {
		outcome.Status = paperStatus(existed)
	}

	if p.descriptor.Strategy.SlidesURL != nil && ctx.Err() == nil {
		if slidesURL, ok := p.descriptor.Strategy.SlidesURL(doc, p.params); ok {
			slides := NewTarget(p.saveDir, entry.Title, utils.AbsoluteURL(entry.SourceURL, slidesURL), models.TargetSlides)
			outcome.Targets = append(outcome.Targets, slides)

			logger.Info().Msgf("下载幻灯片: %s", slides.URL)
			n, existed, err := p.download(ctx, slides, logger)
			written += n
			outcome.Slides = err == nil
			outcome.SlidesWritten = err == nil && !existed
		}
	}

	return written, paperErr
}

// download 目标已存在时跳过,否则先写入临时文件再重命名
func (p *Processor) download(ctx context.Context, target models.DownloadTarget, logger zerolog.Logger) (written int64, existed bool, err error) {
	if _, err := os.Stat(target.LocalPath); err == nil {
		logger.Info().Msgf("文件已存在,跳过: %s", filepath.Base(target.LocalPath))
		return 0, true, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return 0, false, fmt.Errorf("检查文件失败: %w", err)
	}

	data, err := p.fetcher.FetchBytes(ctx, target.URL)
	if err != nil {
		logger.Error().Err(err).Str("file", filepath.Base(target.LocalPath)).Msg("文件下载失败")
		return 0, false, err
	}

	if err := writeFileAtomic(target.LocalPath, data); err != nil {
		logger.Error().Err(err).Str("file", target.LocalPath).Msg("文件写入失败")
		return 0, false, err
	}

	logger.Info().Msgf("✅ 已保存: %s (%d bytes)", filepath.Base(target.LocalPath), len(data))
	return int64(len(data)), false, nil
}

// writeFileAtomic 写入 <path>.<uuid>.part 后重命名,中断时不会留下残缺的目标文件
func writeFileAtomic(path string, data []byte) error {
	tmp := fmt.Sprintf("%s.%s.part", path, uuid.NewString())
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("重命名文件失败: %w", err)
	}
	return nil
}

// pause 每篇论文之后的固定间隔,可被取消
func (p *Processor) pause(ctx context.Context) {
	if p.sleep <= 0 {
		return
	}
	timer := time.NewTimer(p.sleep)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func paperStatus(existed bool) models.PaperStatus {
	if existed {
		return models.PaperExists
	}
	return models.PaperDownloaded
}
