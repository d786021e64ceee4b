package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("默认值", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfigFile(t, "# empty\n"))
		require.NoError(t, err)

		assert.Equal(t, "paper", cfg.Download.SaveDir)
		assert.Equal(t, 2.0, cfg.Download.SleepSeconds)
		assert.False(t, cfg.Download.Parallel)
		assert.Equal(t, 8, cfg.Download.MaxWorkers)
		assert.Equal(t, 0, cfg.Download.Retries)
		assert.Equal(t, 0, cfg.Download.TimeoutSeconds, "默认不限制整个请求的耗时")
		assert.Zero(t, cfg.FetcherConfig().Timeout)
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.False(t, cfg.Report.Enabled)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("配置文件覆盖默认值", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfigFile(t, `download:
  save_dir: /data/papers
  sleep_seconds: 0.5
  parallel: true
  retries: 2
proxy:
  https: http://127.0.0.1:7890
logging:
  level: debug
`))
		require.NoError(t, err)

		assert.Equal(t, "/data/papers", cfg.Download.SaveDir)
		assert.Equal(t, 0.5, cfg.Download.SleepSeconds)
		assert.True(t, cfg.Download.Parallel)
		assert.Equal(t, 2, cfg.Download.Retries)
		assert.Equal(t, "http://127.0.0.1:7890", cfg.Proxy.HTTPS)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, 8, cfg.Download.MaxWorkers, "未指定的字段保留默认值")
	})

	t.Run("环境变量覆盖", func(t *testing.T) {
		t.Setenv("PAPERDL_DOWNLOAD_SAVE_DIR", "from-env")
		cfg, err := LoadConfig(writeConfigFile(t, "download:\n  save_dir: from-file\n"))
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Download.SaveDir)
	})

	t.Run("文件不存在", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.True(t, models.IsConfigError(err))
	})

	t.Run("YAML格式错误", func(t *testing.T) {
		_, err := LoadConfig(writeConfigFile(t, "download: [save_dir\n"))
		assert.True(t, models.IsConfigError(err))
	})
}

func TestConfig_MergeCLIFlags(t *testing.T) {
	cfg, err := LoadConfig(writeConfigFile(t, "download:\n  save_dir: from-file\n  sleep_seconds: 5\n"))
	require.NoError(t, err)

	saveDir := "from-cli"
	parallel := true
	proxy := "socks5://127.0.0.1:1080"
	cfg.MergeCLIFlags(CLIOverrides{SaveDir: &saveDir, Parallel: &parallel, HTTPProxy: &proxy})

	assert.Equal(t, "from-cli", cfg.Download.SaveDir)
	assert.True(t, cfg.Download.Parallel)
	assert.Equal(t, proxy, cfg.Proxy.HTTP)
	assert.Equal(t, 5.0, cfg.Download.SleepSeconds, "未指定的参数不覆盖")
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadConfig(writeConfigFile(t, "# defaults\n"))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"负数间隔", func(c *Config) { c.Download.SleepSeconds = -1 }, "download.sleep_seconds"},
		{"worker为0", func(c *Config) { c.Download.MaxWorkers = 0 }, "download.max_workers"},
		{"worker过多", func(c *Config) { c.Download.MaxWorkers = MaxWorkersLimit + 1 }, "download.max_workers"},
		{"重试过多", func(c *Config) { c.Download.Retries = MaxRetriesLimit + 1 }, "download.retries"},
		{"空保存目录", func(c *Config) { c.Download.SaveDir = " " }, "download.save_dir"},
		{"非法代理", func(c *Config) { c.Proxy.HTTPS = "ftp://x" }, "https-proxy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			ce, ok := err.(*models.ConfigError)
			require.True(t, ok, "err = %v", err)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestConfig_Conversions(t *testing.T) {
	cfg, err := LoadConfig(writeConfigFile(t, `download:
  timeout_seconds: 30
  retries: 3
  retry_base_delay_ms: 250
  max_body_size_mb: 2
logging:
  log_file: /var/log/paperdl/run.log
`))
	require.NoError(t, err)

	fc := cfg.FetcherConfig()
	assert.Equal(t, 30*time.Second, fc.Timeout)
	assert.Equal(t, 3, fc.Retries)
	assert.Equal(t, 250*time.Millisecond, fc.RetryBaseDelay)
	assert.Equal(t, 2*1024*1024, fc.MaxBodySize)

	lc := cfg.LogConfig()
	assert.Equal(t, "/var/log/paperdl", lc.LogDir)
	assert.Equal(t, "run.log", lc.FileName)
	assert.Equal(t, 3, lc.MaxBackups)
}
