package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	// 指向一个不存在的目录，保证不会读到宿主机上的配置
	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "zh-CN", cfg.TargetLang)
	assert.Equal(t, 20, cfg.MaxBatchItems)
	assert.Equal(t, 4000, cfg.MaxBatchChars)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, 500*time.Millisecond, cfg.DebounceQuiet)
	assert.Equal(t, 256, cfg.DebounceMaxPending)
	assert.Equal(t, 1024, cfg.CacheCapacity)
	assert.Equal(t, 120, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.False(t, cfg.Debug)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
endpoint: https://translate.example.com/v1/batch
model: gpt-4o-mini
target_lang: ja
concurrency: 4
debounce_quiet: 250ms
debug: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://translate.example.com/v1/batch", cfg.Endpoint)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "ja", cfg.TargetLang)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 250*time.Millisecond, cfg.DebounceQuiet)
	assert.True(t, cfg.Debug)
	// 未覆盖的项保持默认
	assert.Equal(t, 20, cfg.MaxBatchItems)
}

func TestLoadConfigInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero concurrency", "concurrency: 0"},
		{"negative batch items", "max_batch_items: -1"},
		{"zero cache capacity", "cache_capacity: 0"},
		{"negative retries", "max_retries: -2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := &Config{
		MaxBatchItems:      20,
		MaxBatchChars:      4000,
		Concurrency:        2,
		DebounceMaxPending: 256,
		CacheCapacity:      1024,
		RequestTimeout:     120,
	}
	assert.NoError(t, cfg.Validate())
}

// writeConfig 写一个临时 YAML 配置文件
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".pagetrans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
