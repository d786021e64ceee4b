package core

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/RecoveryAshes/PaperDownloader/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHeaders(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "headers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestHeaderManager_GetHeaders(t *testing.T) {
	t.Run("默认从内置池选取User-Agent", func(t *testing.T) {
		hm, err := NewHeaderManager(filepath.Join(t.TempDir(), "headers.yaml"), nil)
		require.NoError(t, err)

		for range 20 {
			headers, err := hm.GetHeaders()
			require.NoError(t, err)
			assert.True(t, slices.Contains(config.DefaultUserAgents, headers.Get("User-Agent")))
			assert.Equal(t, "gzip, deflate, br", headers.Get("Accept-Encoding"))
		}
	})

	t.Run("配置文件中的User-Agent池", func(t *testing.T) {
		path := writeHeaders(t, "user_agents:\n  - \"AgentA/1.0\"\n  - \"AgentB/2.0\"\n")
		hm, err := NewHeaderManager(path, nil)
		require.NoError(t, err)

		seen := make(map[string]bool)
		for range 50 {
			headers, err := hm.GetHeaders()
			require.NoError(t, err)
			seen[headers.Get("User-Agent")] = true
		}
		for ua := range seen {
			assert.Contains(t, []string{"AgentA/1.0", "AgentB/2.0"}, ua)
		}
	})

	t.Run("命令行头部优先", func(t *testing.T) {
		path := writeHeaders(t, "headers:\n  X-Config: from-config\n  User-Agent: config-agent\n")
		hm, err := NewHeaderManager(path, []string{"User-Agent: CustomBot/1.0", "X-CLI: from-cli"})
		require.NoError(t, err)

		headers, err := hm.GetHeaders()
		require.NoError(t, err)
		assert.Equal(t, "CustomBot/1.0", headers.Get("User-Agent"))
		assert.Equal(t, "from-config", headers.Get("X-Config"))
		assert.Equal(t, "from-cli", headers.Get("X-CLI"))
	})

	t.Run("配置文件头部覆盖随机User-Agent", func(t *testing.T) {
		path := writeHeaders(t, "headers:\n  User-Agent: config-agent\n")
		hm, err := NewHeaderManager(path, nil)
		require.NoError(t, err)

		headers, err := hm.GetHeaders()
		require.NoError(t, err)
		assert.Equal(t, "config-agent", headers.Get("User-Agent"))
	})

	t.Run("命令行设置受管头部", func(t *testing.T) {
		hm, err := NewHeaderManager(filepath.Join(t.TempDir(), "headers.yaml"), []string{"Host: example.com"})
		require.NoError(t, err)

		_, err = hm.GetHeaders()
		assert.Error(t, err)
	})

	t.Run("配置文件设置Range", func(t *testing.T) {
		hm, err := NewHeaderManager(writeHeaders(t, "headers:\n  Range: bytes=0-100\n"), nil)
		require.NoError(t, err)

		_, err = hm.GetHeaders()
		assert.Error(t, err, "部分下载会写出不完整的PDF")
	})

	t.Run("命令行格式错误", func(t *testing.T) {
		_, err := NewHeaderManager("", []string{"missing-colon"})
		assert.Error(t, err)
	})
}

func TestHeaderManager_GetSafeHeaders(t *testing.T) {
	hm, err := NewHeaderManager(filepath.Join(t.TempDir(), "headers.yaml"), []string{"Authorization: Bearer secret-token-12345"})
	require.NoError(t, err)
	require.NoError(t, hm.LoadConfig())

	safe := hm.GetSafeHeaders()
	assert.Equal(t, "Bearer ***", safe["Authorization"])
}
