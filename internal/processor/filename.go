package processor

import (
	"path/filepath"
	"regexp"

	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/RecoveryAshes/PaperDownloader/internal/utils"
)

var (
	// 斜杠和点号直接删除
	stripPattern = regexp.MustCompile(`[/.]+`)
	// 其余非单词字符(含Unicode字母数字以外的字符)替换为连字符
	nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
)

// DefaultExt URL中没有合理扩展名时使用
const DefaultExt = ".pdf"

// SanitizeTitle 把论文标题转换为文件名主体
// 结果只由标题决定,标点不同的标题可能得到同一个名字
func SanitizeTitle(title string) string {
	name := stripPattern.ReplaceAllString(title, "")
	return nonWordPattern.ReplaceAllString(name, "-")
}

// TargetPath <saveDir>/<标题>-<Paper|Slides><扩展名>
func TargetPath(saveDir, title, fileURL string, kind models.TargetKind) string {
	name := SanitizeTitle(title) + "-" + string(kind) + utils.FileExtensionOrDefault(fileURL, DefaultExt)
	return filepath.Join(saveDir, name)
}

// NewTarget 构造下载目标
func NewTarget(saveDir, title, fileURL string, kind models.TargetKind) models.DownloadTarget {
	return models.DownloadTarget{
		URL:       fileURL,
		LocalPath: TargetPath(saveDir, title, fileURL, kind),
		Kind:      kind,
	}
}
