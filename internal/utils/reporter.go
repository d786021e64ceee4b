package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 报告生成器
type Reporter struct {
	reportsDir string
}

// NewReporter 创建报告生成器
func NewReporter(reportsDir string) *Reporter {
	return &Reporter{
		reportsDir: reportsDir,
	}
}

// GenerateReport 写入单次任务报告,返回报告路径
// 文件名: <venue>_<year|vvolume>_<run_id>.json
func (r *Reporter) GenerateReport(report *models.RunReport) (string, error) {
	if err := os.MkdirAll(r.reportsDir, 0755); err != nil {
		return "", fmt.Errorf("创建报告目录失败: %w", err)
	}

	tag := fmt.Sprintf("%d", report.Request.Year)
	if report.Kind == models.KindJournal {
		tag = fmt.Sprintf("v%d", report.Request.Volume)
	}
	filename := fmt.Sprintf("%s_%s_%s.json", report.Venue, tag, report.RunID)

	path, err := r.saveJSONReport(filename, report)
	if err != nil {
		return "", err
	}

	// 失败列表单独保存,方便重跑
	if failed := report.FailedPapers(); len(failed) > 0 {
		failedName := fmt.Sprintf("%s_%s_%s_failed.json", report.Venue, tag, report.RunID)
		if _, err := r.saveJSONReport(failedName, failed); err != nil {
			return "", err
		}
	}

	Infof("✅ 报告已生成: %s", path)
	return path, nil
}

// GenerateBatchReport 写入批量任务摘要
func (r *Reporter) GenerateBatchReport(batchID string, summary *models.BatchSummary) (string, error) {
	if err := os.MkdirAll(r.reportsDir, 0755); err != nil {
		return "", fmt.Errorf("创建报告目录失败: %w", err)
	}
	return r.saveJSONReport(fmt.Sprintf("batch_%s.json", batchID), summary)
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(filename string, data interface{}) (string, error) {
	path := filepath.Join(r.reportsDir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return path, nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string, out io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("paper"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(out, "\n")
		}),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
