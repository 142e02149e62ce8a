// Package config 定义页面翻译器的配置加载与校验。
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config 页面翻译器配置
type Config struct {
	// Endpoint 批次流式翻译服务地址
	Endpoint string `mapstructure:"endpoint"`

	// APIKey 服务凭证
	APIKey string `mapstructure:"api_key"`

	// Model 模型 ID（经服务端转发给上游模型）
	Model string `mapstructure:"model"`

	// TargetLang 目标语言
	TargetLang string `mapstructure:"target_lang"`

	// MaxBatchItems 单批最大条数
	MaxBatchItems int `mapstructure:"max_batch_items"`

	// MaxBatchChars 单批字符上限
	MaxBatchChars int `mapstructure:"max_batch_chars"`

	// Concurrency 同时打开的流通道数
	Concurrency int `mapstructure:"concurrency"`

	// DebounceQuiet 变更观察的静默期
	DebounceQuiet time.Duration `mapstructure:"debounce_quiet"`

	// DebounceMaxPending 变更累积上限，达到即提交
	DebounceMaxPending int `mapstructure:"debounce_max_pending"`

	// CacheCapacity 翻译缓存容量
	CacheCapacity int `mapstructure:"cache_capacity"`

	// RequestTimeout 单条流通道的生命周期上限（秒）
	RequestTimeout int `mapstructure:"request_timeout"`

	// MaxRetries 瞬时错误的最大重试次数
	MaxRetries int `mapstructure:"max_retries"`

	// RetryInitialDelayMs 首次重试延迟（毫秒）
	RetryInitialDelayMs int `mapstructure:"retry_initial_delay_ms"`

	// Debug 调试日志
	Debug bool `mapstructure:"debug"`
}

// LoadConfig 加载配置。优先使用指定路径，否则搜索家目录与当前
// 目录下的 .pagetrans.yaml；环境变量 PAGETRANS_* 覆盖同名配置项。
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}

		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigName(".pagetrans")
		v.SetConfigType("yaml")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("PAGETRANS")

	if err := v.ReadInConfig(); err != nil {
		// 找不到配置文件时使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	v.SetDefault("target_lang", "zh-CN")
	v.SetDefault("max_batch_items", 20)
	v.SetDefault("max_batch_chars", 4000)
	v.SetDefault("concurrency", 2)
	v.SetDefault("debounce_quiet", "500ms")
	v.SetDefault("debounce_max_pending", 256)
	v.SetDefault("cache_capacity", 1024)
	v.SetDefault("request_timeout", 120)
	v.SetDefault("max_retries", 3)
	v.SetDefault("retry_initial_delay_ms", 1000)
	v.SetDefault("debug", false)
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	if c.MaxBatchItems <= 0 {
		return fmt.Errorf("max_batch_items must be positive, got %d", c.MaxBatchItems)
	}
	if c.MaxBatchChars <= 0 {
		return fmt.Errorf("max_batch_chars must be positive, got %d", c.MaxBatchChars)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.DebounceQuiet < 0 {
		return fmt.Errorf("debounce_quiet must not be negative, got %s", c.DebounceQuiet)
	}
	if c.DebounceMaxPending <= 0 {
		return fmt.Errorf("debounce_max_pending must be positive, got %d", c.DebounceMaxPending)
	}
	if c.CacheCapacity <= 0 {
		return fmt.Errorf("cache_capacity must be positive, got %d", c.CacheCapacity)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %d", c.RequestTimeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	return nil
}
