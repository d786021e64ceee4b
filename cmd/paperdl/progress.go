package main

import (
	"fmt"
	"io"

	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/RecoveryAshes/PaperDownloader/internal/utils"
	"github.com/schollz/progressbar/v3"
)

// progressReporter 把流水线的进度回调渲染为进度条
// 总数变化或进度回退(批量模式的下一个任务)时新建进度条
type progressReporter struct {
	out  io.Writer
	bar  *progressbar.ProgressBar
	last models.RunProgress
	runs int
}

func newProgressReporter(out io.Writer) *progressReporter {
	return &progressReporter{out: out}
}

// Update 由流水线在持锁状态下调用,不会并发进入
func (r *progressReporter) Update(p models.RunProgress) {
	if r.bar == nil || p.Total != r.last.Total || p.Completed < r.last.Completed {
		r.runs++
		r.bar = utils.NewProgressBar(p.Total, fmt.Sprintf("[%d] 下载中", r.runs), r.out)
	}
	r.last = p
	_ = r.bar.Set(p.Completed)
}
