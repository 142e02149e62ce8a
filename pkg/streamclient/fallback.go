package streamclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// FallbackConfig OpenAI 兼容后备通道配置
type FallbackConfig struct {
	// BaseURL 兼容网关地址，留空使用 OpenAI 默认地址
	BaseURL string
	// APIKey 凭证
	APIKey string
	// Model 模型 ID
	Model string
	// TargetLang 目标语言
	TargetLang string
	// Timeout 单次请求超时
	Timeout time.Duration
}

// FallbackClient 走 OpenAI 兼容接口的后备翻译客户端。
// 流式批次服务不可用时，划词翻译仍可通过普通 chat completion
// 完成单条文本的翻译。
type FallbackClient struct {
	client     *openai.Client
	model      string
	targetLang string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewFallback 创建后备客户端
func NewFallback(cfg FallbackConfig, logger *zap.Logger) *FallbackClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		// go-openai 的 API 后缀以斜杠开头，去掉尾斜杠避免双斜杠
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &FallbackClient{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		targetLang: cfg.TargetLang,
		timeout:    cfg.Timeout,
		logger:     logger,
	}
}

// TranslateText 翻译单条文本
func (c *FallbackClient) TranslateText(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(
					"You are a professional translator. Translate the user's text into %s. "+
						"Preserve inline HTML markup exactly as given. "+
						"Output only the translation, without explanations.",
					c.targetLang),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.logger.Error("fallback translation failed",
			zap.String("model", c.model),
			zap.Error(err),
		)
		return "", newStreamError(CategoryOf(err), "fallback request", err)
	}
	if len(resp.Choices) == 0 {
		return "", newStreamError(CategoryServerError, "fallback returned no choices", nil)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
