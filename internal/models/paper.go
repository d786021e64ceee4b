package models

import (
	"context"
)

// PaperEntry 列表页解析出的一篇论文
type PaperEntry struct {
	Title     string `json:"title"`
	SourceURL string `json:"source_url"`
}

// TargetKind 下载目标类型
type TargetKind string

const (
	TargetPaper  TargetKind = "Paper"
	TargetSlides TargetKind = "Slides"
)

// DownloadTarget 单个待下载文件
type DownloadTarget struct {
	URL       string     `json:"url"`
	LocalPath string     `json:"local_path"`
	Kind      TargetKind `json:"kind"`
}

// PaperStatus 单篇论文的处理结果
type PaperStatus string

const (
	PaperDownloaded PaperStatus = "downloaded" // 至少写入了论文文件
	PaperExists     PaperStatus = "exists"     // 论文文件已存在,跳过
	PaperFiltered   PaperStatus = "filtered"   // 关键词不匹配
	PaperFailed     PaperStatus = "failed"     // 请求或抽取失败
	PaperCancelled  PaperStatus = "cancelled"  // 任务停止前未开始
)

// PaperOutcome 单篇论文的处理记录
type PaperOutcome struct {
	Entry         PaperEntry       `json:"entry"`
	Status        PaperStatus      `json:"status"`
	Targets       []DownloadTarget `json:"targets,omitempty"`
	Slides        bool             `json:"slides"`                   // 幻灯片最终存在
	SlidesWritten bool             `json:"slides_written,omitempty"` // 幻灯片为本次新写入
	Error         string           `json:"error,omitempty"`
}

// Succeeded 论文文件在处理后存在即视为成功
func (o PaperOutcome) Succeeded() bool {
	return o.Status == PaperDownloaded || o.Status == PaperExists
}

// ResourceFetcher 资源获取接口
// 失败统一返回error,调用方记录日志并放弃当前单元
type ResourceFetcher interface {
	// FetchText 获取HTML等文本内容
	FetchText(ctx context.Context, rawURL string) (string, error)

	// FetchBytes 获取二进制内容(PDF/幻灯片)
	FetchBytes(ctx context.Context, rawURL string) ([]byte, error)

	// ResolveFinalURL 跟随重定向但不下载正文,返回最终URL
	ResolveFinalURL(ctx context.Context, rawURL string) (string, error)
}
