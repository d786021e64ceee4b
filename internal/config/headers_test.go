package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "headers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadHeaderProfile(t *testing.T) {
	t.Run("首次运行生成模板并使用内置池", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "headers.yaml")

		profile, err := LoadHeaderProfile(path)
		require.NoError(t, err)

		_, statErr := os.Stat(path)
		assert.NoError(t, statErr, "配置文件应该被自动生成")
		assert.NotNil(t, profile.Headers)
		assert.Equal(t, DefaultUserAgents, profile.UserAgents)
	})

	t.Run("配置文件的池替换内置池", func(t *testing.T) {
		path := writeConfig(t, `headers:
  Referer: "https://dblp.org/"
user_agents:
  - "AgentA/1.0"
  - "AgentB/2.0"
`)
		profile, err := LoadHeaderProfile(path)
		require.NoError(t, err)

		// viper会将键名转换为小写
		assert.Equal(t, "https://dblp.org/", profile.Headers["referer"])
		assert.Equal(t, []string{"AgentA/1.0", "AgentB/2.0"}, profile.UserAgents)
	})

	t.Run("只配置头部时仍使用内置池", func(t *testing.T) {
		profile, err := LoadHeaderProfile(writeConfig(t, "headers:\n  X-Custom: v\n"))
		require.NoError(t, err)
		assert.Equal(t, "v", profile.Headers["x-custom"])
		assert.Len(t, profile.UserAgents, len(DefaultUserAgents))
	})

	t.Run("池中有空项", func(t *testing.T) {
		path := writeConfig(t, "user_agents:\n  - \"AgentA/1.0\"\n  - \"\"\n")
		_, err := LoadHeaderProfile(path)
		require.Error(t, err)
		assert.True(t, models.IsConfigError(err))
	})

	t.Run("YAML格式错误", func(t *testing.T) {
		path := writeConfig(t, "headers:\n  User-Agent: \"Test Bot\n  X-Custom: missing quote\n")
		_, err := LoadHeaderProfile(path)
		assert.True(t, models.IsConfigError(err))
	})

	t.Run("文件过大", func(t *testing.T) {
		path := writeConfig(t, strings.Repeat("#", maxHeadersFileSize+1))
		_, err := LoadHeaderProfile(path)
		require.Error(t, err)
		assert.True(t, models.IsConfigError(err))
	})
}
