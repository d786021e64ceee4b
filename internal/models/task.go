package models

import (
	"fmt"
	"math"
	"time"
)

// RunStatus 任务状态
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"   // 待执行
	RunStatusRunning   RunStatus = "running"   // 执行中
	RunStatusCompleted RunStatus = "completed" // 已完成
	RunStatusEmpty     RunStatus = "empty"     // 列表为空,无事可做
	RunStatusFailed    RunStatus = "failed"    // 配置或文件系统错误
	RunStatusStopped   RunStatus = "stopped"   // 被用户停止
)

// RunProgress 进度快照
type RunProgress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Percent 完成百分比
func (p RunProgress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return int(math.Round(float64(p.Completed) * 100 / float64(p.Total)))
}

// String 形如 "2/2"
func (p RunProgress) String() string {
	return fmt.Sprintf("%d/%d", p.Completed, p.Total)
}

// RunStats 任务统计
// 并发更新由调用方加锁
type RunStats struct {
	Total      int     `json:"total"`       // 列表中的论文数
	Attempted  int     `json:"attempted"`   // 已处理(含过滤/失败)
	Downloaded int     `json:"downloaded"`  // 新下载论文数
	Existing   int     `json:"existing"`    // 已存在跳过数
	Filtered   int     `json:"filtered"`    // 关键词过滤数
	Failed     int     `json:"failed"`      // 失败数
	Cancelled  int     `json:"cancelled"`   // 停止后未处理数
	Slides     int     `json:"slides"`      // 幻灯片文件数(含已存在)
	NewSlides  int     `json:"new_slides"`  // 新下载幻灯片数
	TotalBytes int64   `json:"total_bytes"` // 新写入字节数
	Duration   float64 `json:"duration"`    // 总耗时(秒)
}

// Record 累加一篇论文的处理结果
func (s *RunStats) Record(o PaperOutcome, written int64) {
	if o.Status == PaperCancelled {
		s.Cancelled++
		return
	}
	s.Attempted++
	switch o.Status {
	case PaperDownloaded:
		s.Downloaded++
	case PaperExists:
		s.Existing++
	case PaperFiltered:
		s.Filtered++
	case PaperFailed:
		s.Failed++
	}
	if o.Slides {
		s.Slides++
	}
	if o.SlidesWritten {
		s.NewSlides++
	}
	s.TotalBytes += written
}

// Succeeded 论文文件最终存在的数量
func (s RunStats) Succeeded() int {
	return s.Downloaded + s.Existing
}

// BatchJob 批量模式中的一个任务
type BatchJob struct {
	ID      string `json:"id" yaml:"-"`
	Venue   string `json:"venue" yaml:"venue"`
	Year    int    `json:"year,omitempty" yaml:"year,omitempty"`
	Volume  int    `json:"volume,omitempty" yaml:"volume,omitempty"`
	Keyword string `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	SaveDir string `json:"save_dir,omitempty" yaml:"save_dir,omitempty"`
}

// NewBatchJob 创建带唯一ID的任务
func NewBatchJob(venue string, year, volume int) BatchJob {
	return BatchJob{
		ID:     generateID(),
		Venue:  venue,
		Year:   year,
		Volume: volume,
	}
}

// Label 用于日志的简短描述
func (j BatchJob) Label() string {
	if j.Volume > 0 {
		return fmt.Sprintf("%s vol.%d", j.Venue, j.Volume)
	}
	return fmt.Sprintf("%s %d", j.Venue, j.Year)
}

// BatchResult 单个批量任务的结果
type BatchResult struct {
	Job         BatchJob  `json:"job"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Stats       RunStats  `json:"stats"`
	ProcessedAt time.Time `json:"processed_at"`
	Duration    float64   `json:"duration"`
}
