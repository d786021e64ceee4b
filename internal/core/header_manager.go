package core

import (
	"math/rand/v2"
	"net/http"
	"sync"

	"github.com/RecoveryAshes/PaperDownloader/internal/config"
	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/RecoveryAshes/PaperDownloader/internal/utils"
)

// HeaderManager 按 内置 < headers.yaml < 命令行 合并请求头
// 实现 models.HeaderProvider,可被多个worker并发调用
type HeaderManager struct {
	configFile string
	defaults   http.Header
	config     http.Header
	cli        http.Header

	// userAgents 加载后不再修改,并发读取无需加锁
	userAgents []string

	once    sync.Once
	loadErr error
}

// NewHeaderManager 创建头部管理器,configFile为空时使用默认路径
// 命令行头部在这里解析,配置文件延迟到第一次请求时加载
func NewHeaderManager(configFile string, cliHeaders []string) (*HeaderManager, error) {
	cli, err := models.ParseHeaderFlags(cliHeaders)
	if err != nil {
		return nil, err
	}
	return &HeaderManager{
		configFile: configFile,
		defaults: http.Header{
			"Accept":          []string{"text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8"},
			"Accept-Encoding": []string{"gzip, deflate, br"},
		},
		config:     make(http.Header),
		cli:        cli,
		userAgents: config.DefaultUserAgents,
	}, nil
}

// LoadConfig 加载并检查配置文件,只执行一次
func (hm *HeaderManager) LoadConfig() error {
	hm.once.Do(func() {
		profile, err := config.LoadHeaderProfile(hm.configFile)
		if err != nil {
			utils.Errorf("❌ 加载请求头配置失败: %v", err)
			hm.loadErr = err
			return
		}
		for name, value := range profile.Headers {
			hm.config.Set(name, value)
		}
		hm.userAgents = profile.UserAgents

		for _, layer := range []struct {
			source  string
			headers http.Header
		}{{"配置文件", hm.config}, {"命令行", hm.cli}} {
			if err := utils.CheckHeaders(layer.headers); err != nil {
				utils.Errorf("❌ %s头部不可用: %v", layer.source, err)
				hm.loadErr = err
				return
			}
		}
		if len(profile.Headers) > 0 {
			utils.Debugf("已加载%d个自定义头部: %v", len(profile.Headers), utils.RedactHeaders(hm.config))
		}
	})
	return hm.loadErr
}

// GetMergedHeaders 合并三层头部
// 配置和命令行都未指定User-Agent时,每次调用从池中随机选取
func (hm *HeaderManager) GetMergedHeaders() http.Header {
	result := make(http.Header)
	result.Set("User-Agent", hm.userAgents[rand.IntN(len(hm.userAgents))])
	for _, layer := range []http.Header{hm.defaults, hm.config, hm.cli} {
		for name, values := range layer {
			result[name] = values
		}
	}
	return result
}

// GetSafeHeaders 脱敏后的头部,用于日志
func (hm *HeaderManager) GetSafeHeaders() map[string]string {
	return utils.RedactHeaders(hm.GetMergedHeaders())
}

// GetHeaders 实现 models.HeaderProvider
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	if err := hm.LoadConfig(); err != nil {
		return nil, err
	}
	return hm.GetMergedHeaders(), nil
}
