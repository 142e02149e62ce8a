package streamclient

import (
	"errors"
	"fmt"
	"strings"
)

// 预定义错误
var (
	// ErrStreamClosed 通道在终止事件之前断开（视为隐式失败）
	ErrStreamClosed = errors.New("stream closed before terminal event")

	// ErrEmptyBatch 空批次
	ErrEmptyBatch = errors.New("empty batch")

	// ErrNoEndpoint 未配置服务端地址
	ErrNoEndpoint = errors.New("no endpoint configured")

	// ErrNotEventStream 端点不支持 SSE（响应不是 text/event-stream）
	ErrNotEventStream = errors.New("endpoint does not speak event streams")

	// ErrNoTranslation 通道正常终止但一条译文都没给
	ErrNoTranslation = errors.New("stream completed without a translation")
)

// Category 面向用户展示的错误类别。
// 分类只影响展示文案与远端调用层的重试资格，不改变管道控制流。
type Category int

const (
	// CategoryUnknown 无法归类
	CategoryUnknown Category = iota
	// CategoryAuthFailure 认证失败（API key 无效等）
	CategoryAuthFailure
	// CategoryAccessDenied 无访问权限
	CategoryAccessDenied
	// CategoryModelNotFound 模型不存在
	CategoryModelNotFound
	// CategoryRateLimited 触发速率限制
	CategoryRateLimited
	// CategoryTimeout 请求超时
	CategoryTimeout
	// CategoryTooLong 超出上下文长度
	CategoryTooLong
	// CategoryBadRequest 请求格式错误
	CategoryBadRequest
	// CategoryServerUnavailable 网关/服务暂不可用
	CategoryServerUnavailable
	// CategoryServerError 服务端内部错误
	CategoryServerError
	// CategoryConnectionFailed 连接失败
	CategoryConnectionFailed
)

// String 返回类别名称
func (c Category) String() string {
	switch c {
	case CategoryAuthFailure:
		return "auth_failure"
	case CategoryAccessDenied:
		return "access_denied"
	case CategoryModelNotFound:
		return "model_not_found"
	case CategoryRateLimited:
		return "rate_limited"
	case CategoryTimeout:
		return "timeout"
	case CategoryTooLong:
		return "too_long"
	case CategoryBadRequest:
		return "bad_request"
	case CategoryServerUnavailable:
		return "server_unavailable"
	case CategoryServerError:
		return "server_error"
	case CategoryConnectionFailed:
		return "connection_failed"
	default:
		return "unknown"
	}
}

// Message 返回面向用户的提示文案
func (c Category) Message() string {
	switch c {
	case CategoryAuthFailure:
		return "Authentication failed, check your API key"
	case CategoryAccessDenied:
		return "Access denied by the translation service"
	case CategoryModelNotFound:
		return "The configured model was not found"
	case CategoryRateLimited:
		return "Rate limited by the translation service"
	case CategoryTimeout:
		return "Translation request timed out"
	case CategoryTooLong:
		return "Text too long for the configured model"
	case CategoryBadRequest:
		return "The translation service rejected the request"
	case CategoryServerUnavailable:
		return "Translation service temporarily unavailable"
	case CategoryServerError:
		return "Translation service error"
	case CategoryConnectionFailed:
		return "Could not connect to the translation service"
	default:
		return "Translation failed"
	}
}

// Retryable 类别是否值得在远端调用层重试。
// 认证、权限、模型、超长、格式错误立即失败；其余瞬时条件
// 在固定退避后重试。
func (c Category) Retryable() bool {
	switch c {
	case CategoryRateLimited, CategoryTimeout, CategoryServerUnavailable,
		CategoryServerError, CategoryConnectionFailed:
		return true
	default:
		return false
	}
}

// StreamError 带类别的流客户端错误
type StreamError struct {
	Category Category
	Msg      string
	Cause    error
}

// Error 实现 error 接口
func (e *StreamError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("[%s] %s", e.Category, e.Msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %v", e.Category, e.Cause)
	}
	return e.Category.Message()
}

// Unwrap 返回原因错误
func (e *StreamError) Unwrap() error {
	return e.Cause
}

// newStreamError 创建带类别的错误
func newStreamError(category Category, msg string, cause error) *StreamError {
	return &StreamError{Category: category, Msg: msg, Cause: cause}
}

// CategoryOf 提取错误的类别；非 StreamError 按消息文本归类
func CategoryOf(err error) Category {
	if err == nil {
		return CategoryUnknown
	}
	var se *StreamError
	if errors.As(err, &se) {
		return se.Category
	}
	return Classify(0, err.Error())
}

// Classify 按状态码与错误文本把原始错误归入类别。
// 仅用于展示与重试资格判断。
func Classify(status int, msg string) Category {
	switch status {
	case 401:
		return CategoryAuthFailure
	case 403:
		return CategoryAccessDenied
	case 404:
		return CategoryModelNotFound
	case 408:
		return CategoryTimeout
	case 413:
		return CategoryTooLong
	case 429:
		return CategoryRateLimited
	case 400:
		return CategoryBadRequest
	case 502, 503, 504:
		return CategoryServerUnavailable
	}
	if status >= 500 {
		return CategoryServerError
	}

	lower := strings.ToLower(msg)
	contains := func(patterns ...string) bool {
		for _, p := range patterns {
			if strings.Contains(lower, p) {
				return true
			}
		}
		return false
	}

	switch {
	case contains("unauthorized", "invalid api key", "authentication", "401"):
		return CategoryAuthFailure
	case contains("forbidden", "access denied", "permission", "403"):
		return CategoryAccessDenied
	case contains("model not found", "no such model", "model_not_found"):
		return CategoryModelNotFound
	case contains("rate limit", "too many requests", "429"):
		return CategoryRateLimited
	case contains("context length", "maximum context", "too long", "token limit"):
		return CategoryTooLong
	case contains("timeout", "timed out", "deadline exceeded"):
		return CategoryTimeout
	case contains("bad request", "invalid request", "400"):
		return CategoryBadRequest
	case contains("bad gateway", "service unavailable", "gateway timeout", "502", "503", "504", "overloaded"):
		return CategoryServerUnavailable
	case contains("internal server error", "server error", "500"):
		return CategoryServerError
	case contains("connection refused", "connection reset", "no such host",
		"broken pipe", "network is unreachable", "eof", "stream closed"):
		return CategoryConnectionFailed
	default:
		return CategoryUnknown
	}
}
