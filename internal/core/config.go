package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/PaperDownloader/internal/crawlers"
	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/RecoveryAshes/PaperDownloader/internal/utils"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀,如 PAPERDL_DOWNLOAD_SAVE_DIR
const EnvPrefix = "PAPERDL"

// 取值范围
const (
	MaxWorkersLimit = 64
	MaxRetriesLimit = 10
)

// Config 应用程序配置
type Config struct {
	Download DownloadConfig     `mapstructure:"download"`
	Proxy    models.ProxyConfig `mapstructure:"proxy"`
	Logging  LoggingConfig      `mapstructure:"logging"`
	Report   ReportConfig       `mapstructure:"report"`
}

// DownloadConfig 下载配置
type DownloadConfig struct {
	SaveDir          string  `mapstructure:"save_dir"`
	SleepSeconds     float64 `mapstructure:"sleep_seconds"`
	Parallel         bool    `mapstructure:"parallel"`
	MaxWorkers       int     `mapstructure:"max_workers"`
	TimeoutSeconds   int     `mapstructure:"timeout_seconds"`
	Retries          int     `mapstructure:"retries"`
	RetryBaseDelayMs int     `mapstructure:"retry_base_delay_ms"`
	MaxBodySizeMB    int     `mapstructure:"max_body_size_mb"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	LogFile  string         `mapstructure:"log_file"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// ReportConfig 运行报告配置
type ReportConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Dir         string `mapstructure:"dir"`
	MetricsFile string `mapstructure:"metrics_file"`
}

// LoadConfig 加载配置文件
// 未指定路径时在 ./configs, ., ~/.paperdl 中查找 config.yaml,找不到则使用默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".paperdl"))
		}
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &models.ConfigError{FilePath: configPath, Cause: fmt.Errorf("读取配置文件失败: %w", err)}
		}
	} else {
		utils.Debugf("使用配置文件: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &models.ConfigError{FilePath: v.ConfigFileUsed(), Cause: fmt.Errorf("解析配置文件失败: %w", err)}
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	v.SetDefault("download.save_dir", "paper")
	v.SetDefault("download.sleep_seconds", 2.0)
	v.SetDefault("download.parallel", false)
	v.SetDefault("download.max_workers", 8)
	v.SetDefault("download.timeout_seconds", 0)
	v.SetDefault("download.retries", 0)
	v.SetDefault("download.retry_base_delay_ms", 500)
	v.SetDefault("download.max_body_size_mb", 0)

	v.SetDefault("proxy.http", "")
	v.SetDefault("proxy.https", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.log_file", utils.DefaultLogFile)
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	v.SetDefault("report.enabled", false)
	v.SetDefault("report.dir", "reports")
	v.SetDefault("report.metrics_file", "")
}

// CLIOverrides 命令行参数,nil表示未指定
type CLIOverrides struct {
	SaveDir      *string
	SleepSeconds *float64
	Parallel     *bool
	MaxWorkers   *int
	Retries      *int
	HTTPProxy    *string
	HTTPSProxy   *string
	LogFile      *string
	LogLevel     *string
	Report       *bool
}

// MergeCLIFlags 合并命令行参数到配置,命令行优先于配置文件
func (c *Config) MergeCLIFlags(o CLIOverrides) {
	if o.SaveDir != nil {
		c.Download.SaveDir = *o.SaveDir
	}
	if o.SleepSeconds != nil {
		c.Download.SleepSeconds = *o.SleepSeconds
	}
	if o.Parallel != nil {
		c.Download.Parallel = *o.Parallel
	}
	if o.MaxWorkers != nil {
		c.Download.MaxWorkers = *o.MaxWorkers
	}
	if o.Retries != nil {
		c.Download.Retries = *o.Retries
	}
	if o.HTTPProxy != nil {
		c.Proxy.HTTP = *o.HTTPProxy
	}
	if o.HTTPSProxy != nil {
		c.Proxy.HTTPS = *o.HTTPSProxy
	}
	if o.LogFile != nil {
		c.Logging.LogFile = *o.LogFile
	}
	if o.LogLevel != nil {
		c.Logging.Level = *o.LogLevel
	}
	if o.Report != nil {
		c.Report.Enabled = *o.Report
	}
}

// Validate 检查取值范围
func (c *Config) Validate() error {
	d := c.Download
	switch {
	case d.SleepSeconds < 0:
		return &models.ConfigError{Field: "download.sleep_seconds", Value: fmt.Sprint(d.SleepSeconds), Cause: fmt.Errorf("不能为负数")}
	case d.MaxWorkers < 1 || d.MaxWorkers > MaxWorkersLimit:
		return &models.ConfigError{Field: "download.max_workers", Value: fmt.Sprint(d.MaxWorkers), Cause: fmt.Errorf("取值范围为1-%d", MaxWorkersLimit)}
	case d.Retries < 0 || d.Retries > MaxRetriesLimit:
		return &models.ConfigError{Field: "download.retries", Value: fmt.Sprint(d.Retries), Cause: fmt.Errorf("取值范围为0-%d", MaxRetriesLimit)}
	case d.TimeoutSeconds < 0:
		return &models.ConfigError{Field: "download.timeout_seconds", Value: fmt.Sprint(d.TimeoutSeconds), Cause: fmt.Errorf("不能为负数")}
	case d.RetryBaseDelayMs < 0:
		return &models.ConfigError{Field: "download.retry_base_delay_ms", Value: fmt.Sprint(d.RetryBaseDelayMs), Cause: fmt.Errorf("不能为负数")}
	case d.MaxBodySizeMB < 0:
		return &models.ConfigError{Field: "download.max_body_size_mb", Value: fmt.Sprint(d.MaxBodySizeMB), Cause: fmt.Errorf("不能为负数")}
	case strings.TrimSpace(d.SaveDir) == "":
		return &models.ConfigError{Field: "download.save_dir", Cause: fmt.Errorf("保存目录不能为空")}
	}
	return c.Proxy.Validate()
}

// FetcherConfig 转换为资源获取器配置
func (c *Config) FetcherConfig() crawlers.FetcherConfig {
	return crawlers.FetcherConfig{
		Timeout:        time.Duration(c.Download.TimeoutSeconds) * time.Second,
		MaxBodySize:    c.Download.MaxBodySizeMB * 1024 * 1024,
		Proxy:          c.Proxy,
		Retries:        c.Download.Retries,
		RetryBaseDelay: time.Duration(c.Download.RetryBaseDelayMs) * time.Millisecond,
	}
}

// LogConfig 转换为日志配置
func (c *Config) LogConfig() utils.LogConfig {
	dir, name := utils.SplitLogPath(c.Logging.LogFile, c.Logging.LogDir)
	return utils.LogConfig{
		Level:      c.Logging.Level,
		LogDir:     dir,
		FileName:   name,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
	}
}
