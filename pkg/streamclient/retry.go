package streamclient

import (
	"context"
	"math"
	"time"
)

// RetryConfig 重试配置
type RetryConfig struct {
	// MaxRetries 最大重试次数（不含首次尝试）
	MaxRetries int `json:"max_retries"`

	// InitialDelay 初始延迟
	InitialDelay time.Duration `json:"initial_delay"`

	// MaxDelay 最大延迟
	MaxDelay time.Duration `json:"max_delay"`

	// BackoffFactor 退避因子（指数退避）
	BackoffFactor float64 `json:"backoff_factor"`
}

// DefaultRetryConfig 返回默认重试配置
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  1 * time.Second,
		MaxDelay:      15 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Retrier 远端调用层的重试器。
// 只重试瞬时类别（速率限制、网关错误、连接失败等），且只在批次
// 尚未交付任何结果时：一旦有增量结果写入了 DOM，整批重放会导致
// 重复回写，此时失败按失败上报，由调度器聚合。
type Retrier struct {
	config RetryConfig
}

// NewRetrier 创建重试器
func NewRetrier(config RetryConfig) *Retrier {
	if config.BackoffFactor <= 1.0 {
		config.BackoffFactor = 2.0
	}
	return &Retrier{config: config}
}

// Do 执行 fn，fn 返回 (delivered, err)：delivered 表示本次尝试是否
// 已向调用方交付过结果。err 为 nil 或不可重试、或已交付结果时立即
// 返回；否则按退避延迟后重试，直到次数用尽。
func (r *Retrier) Do(ctx context.Context, fn func() (bool, error)) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.delay(attempt)):
			}
		}

		delivered, err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if delivered || !CategoryOf(err).Retryable() {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return lastErr
}

// delay 计算第 attempt 次重试前的延迟
func (r *Retrier) delay(attempt int) time.Duration {
	d := r.config.InitialDelay
	if d <= 0 {
		d = time.Second
	}
	multiplier := math.Pow(r.config.BackoffFactor, float64(attempt-1))
	d = time.Duration(float64(d) * multiplier)

	if r.config.MaxDelay > 0 && d > r.config.MaxDelay {
		d = r.config.MaxDelay
	}
	return d
}
