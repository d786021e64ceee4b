// Package listing 解析会议/期刊列表页,得到按列表顺序排列的论文条目
package listing

import (
	"context"
	"fmt"
	"strings"

	"github.com/RecoveryAshes/PaperDownloader/internal/markup"
	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/RecoveryAshes/PaperDownloader/internal/utils"
	"github.com/RecoveryAshes/PaperDownloader/internal/venue"
	"github.com/rs/zerolog"
)

// DBLP列表页的条目结构
const (
	dblpConfEntry    = ".inproceedings"
	dblpJournalEntry = ".article"
	dblpTitle        = ".title"
	dblpLink         = ".drop-down:first-child a"
)

// Resolver 列表解析器
type Resolver struct {
	fetcher models.ResourceFetcher
	logger  zerolog.Logger
}

// NewResolver 创建列表解析器
func NewResolver(fetcher models.ResourceFetcher, logger zerolog.Logger) *Resolver {
	return &Resolver{fetcher: fetcher, logger: logger}
}

// Resolve 获取列表页并抽取论文条目
//
// 参数不受支持时返回 *models.ConfigError,此时不发起任何请求。
// 列表获取失败、内容为空或抽取失败时记录错误日志,返回空列表和对应错误,
// 调用方把它当作空列表处理。
func (r *Resolver) Resolve(ctx context.Context, d venue.Descriptor, req models.ListingRequest) ([]models.PaperEntry, error) {
	params := d.Params(req)
	listingURL, err := d.ListingURL(params)
	if err != nil {
		return nil, err
	}

	r.logger.Info().Str("url", listingURL).Msgf("📄 获取列表页: %s", d.DisplayName)
	content, err := r.fetcher.FetchText(ctx, listingURL)
	if err != nil {
		r.logger.Error().Err(err).Str("url", listingURL).Msg("列表页获取失败")
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		err := &models.FetchError{URL: listingURL, Cause: fmt.Errorf("列表页内容为空")}
		r.logger.Error().Str("url", listingURL).Msg("列表页内容为空")
		return nil, err
	}

	doc, err := markup.Parse(content)
	if err != nil {
		r.logger.Error().Err(err).Str("url", listingURL).Msg("列表页解析失败")
		return nil, err
	}

	var entries []models.PaperEntry
	if d.Strategy.ListingEntries != nil {
		entries, err = r.diyEntries(doc, d, params, listingURL)
	} else {
		entries, err = r.dblpEntries(doc, listingURL)
	}
	if err != nil {
		r.logger.Error().Err(err).Str("url", listingURL).Msg("列表页抽取失败")
		return nil, err
	}

	r.logger.Info().Msgf("共解析到 %d 篇论文", len(entries))
	return entries, nil
}

// diyEntries 列表页直接给出论文链接
func (r *Resolver) diyEntries(doc *markup.Document, d venue.Descriptor, p venue.Params, listingURL string) ([]models.PaperEntry, error) {
	titles, links, err := d.Strategy.ListingEntries(doc, p)
	if err != nil {
		return nil, err
	}
	if len(titles) != len(links) {
		return nil, fmt.Errorf("%w: %d个标题, %d个链接", models.ErrSelectorDrift, len(titles), len(links))
	}

	entries := make([]models.PaperEntry, 0, len(titles))
	for i := range titles {
		title, ok := titles[i].Text()
		if !ok {
			r.logger.Warn().Int("index", i).Msg("条目缺少标题,已跳过")
			continue
		}
		href, ok := links[i].Href()
		if !ok {
			r.logger.Warn().Str("title", title).Msg("条目缺少链接,已跳过")
			continue
		}
		entries = append(entries, models.PaperEntry{
			Title:     title,
			SourceURL: utils.AbsoluteURL(listingURL, href),
		})
	}
	return entries, nil
}

// dblpEntries DBLP结构的列表页
func (r *Resolver) dblpEntries(doc *markup.Document, listingURL string) ([]models.PaperEntry, error) {
	entrySel, err := dblpEntrySelector(listingURL)
	if err != nil {
		return nil, err
	}

	nodes := doc.SelectAll(entrySel)
	entries := make([]models.PaperEntry, 0, len(nodes))
	for i, node := range nodes {
		title, ok := node.SelectFirstText(dblpTitle)
		if !ok {
			r.logger.Warn().Int("index", i).Msg("条目缺少标题,已跳过")
			continue
		}
		href, ok := node.SelectFirstHref(dblpLink)
		if !ok {
			r.logger.Warn().Str("title", title).Msg("条目缺少链接,已跳过")
			continue
		}
		entries = append(entries, models.PaperEntry{
			Title:     title,
			SourceURL: utils.AbsoluteURL(listingURL, href),
		})
	}
	return entries, nil
}

// dblpEntrySelector 根据 /db/ 之后的路径段选择条目选择器
func dblpEntrySelector(listingURL string) (string, error) {
	rest, ok := strings.CutPrefix(listingURL, venue.DBLPPrefix)
	if !ok {
		return "", fmt.Errorf("%w: 不是DBLP地址: %s", models.ErrListingShape, listingURL)
	}
	segment, _, _ := strings.Cut(rest, "/")
	switch segment {
	case "conf":
		return dblpConfEntry, nil
	case "journals":
		return dblpJournalEntry, nil
	default:
		return "", fmt.Errorf("%w: 未知的DBLP分类 %q", models.ErrListingShape, segment)
	}
}
