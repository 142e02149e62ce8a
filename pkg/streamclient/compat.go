package streamclient

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"
)

// CompatClient 在流式通道之外再挂一条 OpenAI 兼容后备通道。
// 端点接受请求但不讲 SSE（典型场景：只暴露 chat completion 的
// 兼容网关）时，降级为逐条普通补全，并记住这一事实，后续批次
// 不再探测流式通道。其余错误原样透传，不触发降级。
type CompatClient struct {
	stream   *Client
	fallback *FallbackClient
	logger   *zap.Logger
	degraded atomic.Bool
}

// NewCompat 组合流式客户端与后备客户端
func NewCompat(stream *Client, fallback *FallbackClient, logger *zap.Logger) *CompatClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompatClient{
		stream:   stream,
		fallback: fallback,
		logger:   logger,
	}
}

// Degraded 报告是否已切换到后备通道
func (c *CompatClient) Degraded() bool {
	return c.degraded.Load()
}

// TranslateBatch 优先走流式通道；端点拒绝 text/event-stream 时
// 逐条走后备通道。逐条模式下中途失败即返回，已交付的结果保持
// 有效，与流式批次的失败语义一致。
func (c *CompatClient) TranslateBatch(ctx context.Context, batch []string, onResult func(index int, translated string)) error {
	if len(batch) == 0 {
		return ErrEmptyBatch
	}

	if !c.degraded.Load() {
		err := c.stream.TranslateBatch(ctx, batch, onResult)
		if err == nil || !errors.Is(err, ErrNotEventStream) {
			return err
		}
		c.degraded.Store(true)
		c.logger.Warn("endpoint rejected event stream, falling back to chat completion",
			zap.Int("batch", len(batch)))
	}

	for i, text := range batch {
		translated, err := c.fallback.TranslateText(ctx, text)
		if err != nil {
			return err
		}
		onResult(i, translated)
	}
	return nil
}

// TranslateText 单条文本翻译，降级规则同 TranslateBatch
func (c *CompatClient) TranslateText(ctx context.Context, text string) (string, error) {
	if !c.degraded.Load() {
		translated, err := c.stream.TranslateText(ctx, text)
		if err == nil || !errors.Is(err, ErrNotEventStream) {
			return translated, err
		}
		c.degraded.Store(true)
		c.logger.Warn("endpoint rejected event stream, falling back to chat completion")
	}
	return c.fallback.TranslateText(ctx, text)
}
