package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults 测试默认配置
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "apk_malware.model", cfg.Model.Path)
	assert.Equal(t, "model_stats.json", cfg.Model.ImportanceReport)
	assert.Equal(t, 100, cfg.Model.Trees)
	assert.Equal(t, 50, cfg.Model.MaxDepth)
	assert.Equal(t, 0.2, cfg.Model.TestRatio)
	assert.Equal(t, "malware", cfg.Corpus.MalwareDir)
	assert.Equal(t, "normal", cfg.Corpus.NormalDir)
	assert.Equal(t, 1, cfg.Corpus.Workers)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Watcher.Debounce)
}

// TestLoad_File 测试配置文件
func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
model:
  path: /var/lib/dd/model.bin
  trees: 10
corpus:
  malware_dir: /data/bad
  workers: 4
database:
  enabled: true
  type: sqlite
  path: /tmp/dd.db
watcher:
  debounce: 500ms
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/dd/model.bin", cfg.Model.Path)
	assert.Equal(t, 10, cfg.Model.Trees)
	assert.Equal(t, 50, cfg.Model.MaxDepth)
	assert.Equal(t, "/data/bad", cfg.Corpus.MalwareDir)
	assert.Equal(t, "normal", cfg.Corpus.NormalDir)
	assert.Equal(t, 4, cfg.Corpus.Workers)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, 500*time.Millisecond, cfg.Watcher.Debounce)
	assert.Equal(t, "debug", cfg.Log.Level)
}

// TestLoad_Env 测试环境变量覆盖
func TestLoad_Env(t *testing.T) {
	t.Setenv("DD_MODEL_PATH", "/env/model")
	t.Setenv("DD_NORMAL_DIR", "/env/normal")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/env/model", cfg.Model.Path)
	assert.Equal(t, "/env/normal", cfg.Corpus.NormalDir)
}

// TestLoad_Invalid 测试非法取值
func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model:\n  test_ratio: 1.5\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// TestInitLogger 测试日志器
func TestInitLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := InitLogger(&LogConfig{Level: "warn", Format: "json"}, &buf)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	logger.Info("hidden")
	logger.WithField("file", "a.apk").Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"file":"a.apk"`)

	fallback := InitLogger(&LogConfig{Level: "nonsense"}, &buf)
	assert.Equal(t, logrus.InfoLevel, fallback.GetLevel())
}
