// Package streamclient 实现与远端翻译服务的流式通道。
// 每个批次打开一条有界生命周期的 SSE 通道，增量接收逐条结果，
// 以一条 done/error 终止事件收尾；终止事件之前的断连按隐式失败
// 处理。瞬时错误的重试与退避在这一层完成，调度器看到的批次失败
// 都是重试耗尽后的最终结果。
package streamclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config 流客户端配置
type Config struct {
	// Endpoint 批次翻译接口地址
	Endpoint string
	// APIKey 凭证（Bearer）
	APIKey string
	// TargetLang 目标语言
	TargetLang string
	// PreserveFormat 要求远端保留行内标记
	PreserveFormat bool
	// Timeout 单条通道的生命周期上限
	Timeout time.Duration
	// Retry 重试配置
	Retry RetryConfig
	// Headers 额外请求头
	Headers map[string]string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		PreserveFormat: true,
		Timeout:        120 * time.Second,
		Retry:          DefaultRetryConfig(),
	}
}

// Client 流式翻译客户端
type Client struct {
	config     Config
	httpClient *http.Client
	retrier    *Retrier
	logger     *zap.Logger
}

// New 创建流式客户端
func New(config Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Timeout <= 0 {
		config.Timeout = 120 * time.Second
	}
	return &Client{
		config: config,
		// 超时由每条通道的 context 控制，而不是全局 client 超时：
		// SSE 读取会话的生命周期远长于普通请求
		httpClient: &http.Client{},
		retrier:    NewRetrier(config.Retry),
		logger:     logger,
	}
}

// TranslateBatch 为一个批次打开一条通道并消费到终止事件。
// onResult 对每条增量结果立即回调（到达顺序不保证递增），
// 使译文可以边到达边写回，而不是等整批完成。
// 返回 nil 表示收到 done；返回错误表示批次失败——此前已回调的
// 结果保持有效，失败仅用于计数。
func (c *Client) TranslateBatch(ctx context.Context, batch []string, onResult func(index int, translated string)) error {
	if len(batch) == 0 {
		return ErrEmptyBatch
	}
	if c.config.Endpoint == "" {
		return ErrNoEndpoint
	}

	return c.retrier.Do(ctx, func() (bool, error) {
		delivered := false
		err := c.streamOnce(ctx, batch, func(i int, translated string) {
			delivered = true
			onResult(i, translated)
		})
		return delivered, err
	})
}

// TranslateText 翻译单条文本（划词翻译路径）。
// 支持外部取消：ctx 取消时通道立即关闭，调用方得到 ctx.Err()。
// 通道正常终止但没有交付译文时返回 ErrNoTranslation，
// 不把空串当成译文交给调用方。
func (c *Client) TranslateText(ctx context.Context, text string) (string, error) {
	var (
		result    string
		delivered bool
	)
	err := c.TranslateBatch(ctx, []string{text}, func(i int, translated string) {
		if i == 0 {
			result = translated
			delivered = true
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	if !delivered {
		return "", ErrNoTranslation
	}
	return result, nil
}

// streamOnce 单次通道会话：打开、逐事件消费、终止
func (c *Client) streamOnce(ctx context.Context, batch []string, onResult func(int, string)) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	body, err := json.Marshal(batchRequest{
		Batch:          batch,
		TargetLang:     c.config.TargetLang,
		PreserveFormat: c.config.PreserveFormat,
	})
	if err != nil {
		return fmt.Errorf("marshal batch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newStreamError(CategoryConnectionFailed, "open channel", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		category := Classify(resp.StatusCode, string(msg))
		return newStreamError(category,
			fmt.Sprintf("channel rejected: %s", strings.TrimSpace(string(msg))), nil)
	}

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		return fmt.Errorf("unexpected content type %q: %w", ct, ErrNotEventStream)
	}

	return c.consume(ctx, resp.Body, len(batch), onResult)
}

// consume 读取 SSE 事件流直到终止事件或断连
func (c *Client) consume(ctx context.Context, body io.Reader, batchSize int, onResult func(int, string)) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			continue
		}

		event, err := ParseEvent([]byte(data))
		if err != nil {
			c.logger.Warn("dropping malformed stream event", zap.Error(err))
			continue
		}

		switch event.Type {
		case EventTranslation:
			if event.Index >= batchSize {
				c.logger.Warn("translation index out of range",
					zap.Int("index", event.Index), zap.Int("batch", batchSize))
				continue
			}
			onResult(event.Index, event.Translation)

		case EventDone:
			return nil

		case EventError:
			category := Classify(0, event.Err)
			return newStreamError(category, event.Err, nil)
		}
	}

	// 终止事件之前断开：隐式失败
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return newStreamError(CategoryConnectionFailed, "channel broken", err)
	}
	return newStreamError(CategoryConnectionFailed, "", ErrStreamClosed)
}
