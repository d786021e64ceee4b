package processor

import (
	"path/filepath"
	"testing"

	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"空格替换为连字符", "Graph Neural Networks", "Graph-Neural-Networks"},
		{"删除结尾点号", "Graph Neural Networks.", "Graph-Neural-Networks"},
		{"删除斜杠", "A/B: Study", "AB-Study"},
		{"连续标点合并", "AB \u2014 Study", "AB-Study"},
		{"点号不产生连字符", "v1.2 Release", "v12-Release"},
		{"保留Unicode字母", "Über Graphen", "Über-Graphen"},
		{"结尾标点", "Why?", "Why-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeTitle(tt.title))
		})
	}
}

func TestSanitizeTitle_Collision(t *testing.T) {
	// 只有标点不同的标题得到同一个文件名
	assert.Equal(t, SanitizeTitle("A/B: Study"), SanitizeTitle("AB \u2014 Study"))
	assert.Equal(t, SanitizeTitle("A.B Study"), SanitizeTitle("AB, Study"))
}

func TestTargetPath(t *testing.T) {
	dir := filepath.Join("out", "icml")
	tests := []struct {
		name    string
		fileURL string
		kind    models.TargetKind
		want    string
	}{
		{"pdf", "https://proceedings.mlr.press/v139/a21a/a21a.pdf", models.TargetPaper, "T-Paper.pdf"},
		{"扩展名转小写", "https://x.org/a.PDF", models.TargetPaper, "T-Paper.pdf"},
		{"无扩展名使用默认", "https://openreview.net/pdf?id=abc", models.TargetPaper, "T-Paper.pdf"},
		{"幻灯片", "https://x.org/slides.pptx", models.TargetSlides, "T-Slides.pptx"},
		{"不合理的扩展名", "https://x.org/file.v2", models.TargetPaper, "T-Paper.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, filepath.Join(dir, tt.want), TargetPath(dir, "T", tt.fileURL, tt.kind))
		})
	}

	assert.Equal(t, TargetPath(dir, "Same", "https://x.org/a.pdf", models.TargetPaper),
		TargetPath(dir, "Same", "https://x.org/a.pdf", models.TargetPaper))
}
