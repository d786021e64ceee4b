package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/RecoveryAshes/PaperDownloader/internal/utils"
	"github.com/spf13/viper"
)

const (
	// DefaultHeadersFile 未指定 --headers 时使用的路径
	DefaultHeadersFile = "configs/headers.yaml"

	maxHeadersFileSize = 1 << 20
)

//go:embed headers_template.yaml
var headersTemplate string

// DefaultUserAgents 内置User-Agent池(桌面与移动端)
// headers.yaml 未配置 user_agents 时使用
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/75.0.3770.142 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/70.0.3538.25 Safari/537.36 Core/1.70.3722.400 QQBrowser/10.5.3739.400",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Linux; Android 7.1.1; OPPO R9sk) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/73.0.3683.90 Mobile Safari/537.36 EdgA/42.0.2.3819",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 18_0_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.0.1 Mobile/22A3370 Safari/604.1",
}

// LoadHeaderProfile 读取 headers.yaml,文件不存在时先写出模板
// 返回的 UserAgents 一定非空: 配置文件的池优先,否则为内置池
func LoadHeaderProfile(path string) (*models.HeaderProfile, error) {
	if path == "" {
		path = DefaultHeadersFile
	}
	if err := writeTemplateIfMissing(path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &models.ConfigError{FilePath: path, Cause: err}
	}
	if info.Size() > maxHeadersFileSize {
		return nil, &models.ConfigError{FilePath: path, Cause: fmt.Errorf("文件过大: %d 字节 (最大 %d)", info.Size(), maxHeadersFileSize)}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, &models.ConfigError{FilePath: path, Cause: err}
	}

	var profile models.HeaderProfile
	if err := v.Unmarshal(&profile); err != nil {
		return nil, &models.ConfigError{FilePath: path, Cause: fmt.Errorf("配置绑定失败: %w", err)}
	}
	if profile.Headers == nil {
		profile.Headers = make(map[string]string)
	}

	if !profile.HasCustomPool() {
		profile.UserAgents = DefaultUserAgents
		utils.Debugf("🎭 使用内置User-Agent池 (%d个)", len(DefaultUserAgents))
		return &profile, nil
	}
	if err := utils.CheckAgentPool(profile.UserAgents); err != nil {
		return nil, &models.ConfigError{FilePath: path, Cause: err}
	}
	utils.Debugf("🎭 使用配置文件中的User-Agent池 (%d个)", len(profile.UserAgents))
	return &profile, nil
}

func writeTemplateIfMissing(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("无法创建配置目录 [%s]: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(headersTemplate), 0644); err != nil {
		return fmt.Errorf("无法生成配置文件 [%s]: %w", path, err)
	}
	utils.Infof("📝 已生成请求头配置模板: %s", path)
	return nil
}
