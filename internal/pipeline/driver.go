// Package pipeline 把论文列表交给处理器执行,支持串行和有界并发两种模式
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/rs/zerolog"
)

// Handler 处理单篇论文,失败只体现在结果中
type Handler interface {
	Process(ctx context.Context, entry models.PaperEntry) (models.PaperOutcome, int64)
}

// HandlerFunc 函数适配器
type HandlerFunc func(ctx context.Context, entry models.PaperEntry) (models.PaperOutcome, int64)

// Process 实现 Handler
func (f HandlerFunc) Process(ctx context.Context, entry models.PaperEntry) (models.PaperOutcome, int64) {
	return f(ctx, entry)
}

// ProgressFunc 每完成一篇论文调用一次
// 并发模式下可能从多个goroutine调用,但调用之间互斥
type ProgressFunc func(progress models.RunProgress)

// Options 运行选项
type Options struct {
	Parallel bool         // 是否使用worker池
	Workers  int          // worker数量,串行模式忽略
	Token    *Token       // 暂停/停止控制,为nil时自动创建
	Progress ProgressFunc // 进度回调
	Metrics  *Metrics     // 可选
	Logger   zerolog.Logger
}

// Result 运行结果
type Result struct {
	Stats    models.RunStats
	Progress models.RunProgress
	Outcomes []models.PaperOutcome // 与输入顺序一致
	Stopped  bool                  // 是否因停止或取消而提前结束
}

// driver 单次运行的共享状态
type driver struct {
	handler Handler
	opts    Options
	entries []models.PaperEntry

	mu       sync.Mutex
	result   *Result
	handled  []bool
	progress models.RunProgress
}

// Run 执行整个论文列表
// 列表为空时返回 models.ErrNothingToDo
func Run(ctx context.Context, entries []models.PaperEntry, handler Handler, opts Options) (*Result, error) {
	if len(entries) == 0 {
		return &Result{}, models.ErrNothingToDo
	}
	if opts.Token == nil {
		opts.Token = NewToken()
	}

	d := &driver{
		handler: handler,
		opts:    opts,
		entries: entries,
		result: &Result{
			Outcomes: make([]models.PaperOutcome, len(entries)),
		},
		handled:  make([]bool, len(entries)),
		progress: models.RunProgress{Total: len(entries)},
	}
	d.result.Stats.Total = len(entries)

	start := time.Now()
	if opts.Parallel {
		d.runPool(ctx)
	} else {
		d.runSequential(ctx)
	}
	opts.Token.finish()

	d.markCancelled()
	d.result.Progress = d.progress
	d.result.Stats.Duration = time.Since(start).Seconds()
	return d.result, nil
}

// runSequential 严格按列表顺序处理
func (d *driver) runSequential(ctx context.Context) {
	if d.opts.Metrics != nil {
		d.opts.Metrics.SetWorkers(1)
	}
	for i := range d.entries {
		if !d.opts.Token.Checkpoint(ctx) {
			d.opts.Logger.Warn().Msgf("任务已停止,剩余 %d 篇未处理", len(d.entries)-i)
			return
		}
		d.process(ctx, d.opts.Logger, i)
	}
}

// runPool 固定大小的worker池,完成顺序与列表顺序无关
func (d *driver) runPool(ctx context.Context) {
	workers := d.opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(d.entries) {
		workers = len(d.entries)
	}
	if d.opts.Metrics != nil {
		d.opts.Metrics.SetWorkers(workers)
	}
	d.opts.Logger.Info().Msgf("🚀 并行模式: %d 个worker", workers)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger := d.opts.Logger.With().Int("worker", id).Logger()
			for i := range jobs {
				if !d.opts.Token.Checkpoint(ctx) {
					continue
				}
				d.process(ctx, logger, i)
			}
		}(w)
	}

	for i := range d.entries {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// process 处理单篇论文并更新统计
func (d *driver) process(ctx context.Context, logger zerolog.Logger, i int) {
	start := time.Now()
	outcome, written := d.handler.Process(logger.WithContext(ctx), d.entries[i])
	if d.opts.Metrics != nil {
		d.opts.Metrics.ObservePaper(outcome, written, time.Since(start))
	}

	d.mu.Lock()
	d.result.Outcomes[i] = outcome
	d.handled[i] = true
	d.result.Stats.Record(outcome, written)
	if outcome.Status == models.PaperCancelled {
		d.result.Stopped = true
		d.mu.Unlock()
		return
	}
	d.progress.Completed++
	progress := d.progress
	if d.opts.Progress != nil {
		d.opts.Progress(progress)
	}
	d.mu.Unlock()
}

// markCancelled 未开始的论文记为cancelled
func (d *driver) markCancelled() {
	for i, done := range d.handled {
		if done {
			continue
		}
		d.result.Stopped = true
		outcome := models.PaperOutcome{Entry: d.entries[i], Status: models.PaperCancelled}
		d.result.Outcomes[i] = outcome
		d.result.Stats.Record(outcome, 0)
		if d.opts.Metrics != nil {
			d.opts.Metrics.ObservePaper(outcome, 0, 0)
		}
	}
}
