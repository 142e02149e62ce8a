package pipeline

import (
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-page-translator/internal/cache"
)

// Option 会话配置选项函数
type Option func(*sessionOptions)

// sessionOptions 会话内部选项
type sessionOptions struct {
	config   Config
	cache    *cache.Cache
	guard    RunGuard
	reporter StatusReporter
	logger   *zap.Logger
}

// WithConfig 设置会话配置
func WithConfig(cfg Config) Option {
	return func(o *sessionOptions) {
		o.config = cfg
	}
}

// WithCache 设置翻译缓存
func WithCache(c *cache.Cache) Option {
	return func(o *sessionOptions) {
		o.cache = c
	}
}

// WithRunGuard 设置运行互斥守卫（防止重复并发的整页翻译）
func WithRunGuard(g RunGuard) Option {
	return func(o *sessionOptions) {
		o.guard = g
	}
}

// WithReporter 设置状态上报器
func WithReporter(r StatusReporter) Option {
	return func(o *sessionOptions) {
		o.reporter = r
	}
}

// WithLogger 设置logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *sessionOptions) {
		o.logger = logger
	}
}
