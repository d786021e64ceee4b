package pipeline

import (
	"fmt"
	"strconv"
	"time"

	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 单次运行的Prometheus指标,使用独立的registry
// 不启动HTTP服务,结束时可写成node-exporter textfile
type Metrics struct {
	registry *prometheus.Registry

	papersTotal    *prometheus.CounterVec
	bytesTotal     prometheus.Counter
	slidesTotal    prometheus.Counter
	fetchesTotal   *prometheus.CounterVec
	paperDuration  prometheus.Histogram
	activeWorkers  prometheus.Gauge
	listingEntries prometheus.Gauge
}

// NewMetrics 创建指标,venue作为常量标签
func NewMetrics(venue string) *Metrics {
	labels := prometheus.Labels{"venue": venue}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		papersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "paperdl_papers_total",
			Help:        "Papers processed, labeled by outcome status.",
			ConstLabels: labels,
		}, []string{"status"}),
		bytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "paperdl_bytes_written_total",
			Help:        "Bytes written to the save directory.",
			ConstLabels: labels,
		}),
		slidesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "paperdl_slides_total",
			Help:        "Slides files present after processing.",
			ConstLabels: labels,
		}),
		fetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "paperdl_fetch_requests_total",
			Help:        "HTTP requests issued, labeled by method and status code.",
			ConstLabels: labels,
		}, []string{"method", "code"}),
		paperDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "paperdl_paper_duration_seconds",
			Help:        "Time spent on a single paper including the per-paper sleep.",
			ConstLabels: labels,
			Buckets:     []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "paperdl_workers",
			Help:        "Workers used by the current run.",
			ConstLabels: labels,
		}),
		listingEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "paperdl_listing_entries",
			Help:        "Entries resolved from the listing page.",
			ConstLabels: labels,
		}),
	}
	m.registry.MustRegister(
		m.papersTotal, m.bytesTotal, m.slidesTotal, m.fetchesTotal,
		m.paperDuration, m.activeWorkers, m.listingEntries,
	)
	return m
}

// Registry 底层registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePaper 记录一篇论文的结果
func (m *Metrics) ObservePaper(o models.PaperOutcome, written int64, elapsed time.Duration) {
	m.papersTotal.WithLabelValues(string(o.Status)).Inc()
	m.bytesTotal.Add(float64(written))
	if o.Slides {
		m.slidesTotal.Inc()
	}
	if o.Status != models.PaperCancelled {
		m.paperDuration.Observe(elapsed.Seconds())
	}
}

// ObserveFetch 签名与 crawlers.FetchObserver 一致
func (m *Metrics) ObserveFetch(method string, statusCode int, _ int, err error) {
	code := strconv.Itoa(statusCode)
	if statusCode == 0 && err != nil {
		code = "error"
	}
	m.fetchesTotal.WithLabelValues(method, code).Inc()
}

// SetWorkers 记录worker数量
func (m *Metrics) SetWorkers(n int) {
	m.activeWorkers.Set(float64(n))
}

// SetListingEntries 记录列表条目数
func (m *Metrics) SetListingEntries(n int) {
	m.listingEntries.Set(float64(n))
}

// WriteTextfile 以文本格式写出全部指标
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("写入指标文件失败: %w", err)
	}
	return nil
}
