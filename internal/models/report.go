package models

import (
	"encoding/json"
	"time"
)

// RunReport 单次下载任务报告
type RunReport struct {
	// 任务信息
	RunID       string    `json:"run_id"`
	Venue       string    `json:"venue"`
	DisplayName string    `json:"display_name"`
	Kind        VenueKind `json:"kind"`
	ListingURL  string    `json:"listing_url"`
	Status      RunStatus `json:"status"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 统计信息
	Stats    RunStats    `json:"stats"`
	Progress RunProgress `json:"progress"`

	// 每篇论文的处理记录
	Papers []PaperOutcome `json:"papers"`

	// 请求快照
	Request ListingRequest `json:"request"`

	Error string `json:"error,omitempty"`
}

// NewRunReport 创建带唯一ID的报告
func NewRunReport(venue string, kind VenueKind, request ListingRequest) *RunReport {
	return &RunReport{
		RunID:     generateID(),
		Venue:     venue,
		Kind:      kind,
		Status:    RunStatusPending,
		StartTime: time.Now(),
		Request:   request,
	}
}

// Finish 记录结束时间
func (r *RunReport) Finish(status RunStatus) {
	r.Status = status
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime).Seconds()
	r.Stats.Duration = r.Duration
}

// FailedPapers 返回失败的论文
func (r *RunReport) FailedPapers() []PaperOutcome {
	var failed []PaperOutcome
	for _, p := range r.Papers {
		if p.Status == PaperFailed {
			failed = append(failed, p)
		}
	}
	return failed
}

// ToJSON 序列化为JSON
func (r *RunReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// BatchSummary 批量任务摘要
type BatchSummary struct {
	TotalJobs     int           `json:"total_jobs"`
	SuccessCount  int           `json:"success_count"`
	FailCount     int           `json:"fail_count"`
	TotalFiles    int           `json:"total_files"`
	TotalSize     int64         `json:"total_size"`
	TotalDuration float64       `json:"total_duration"`
	Results       []BatchResult `json:"results"`
}
