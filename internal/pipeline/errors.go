package pipeline

import "errors"

// 预定义错误
var (
	// ErrNoRunner 未配置流式客户端
	ErrNoRunner = errors.New("stream runner not configured")

	// ErrRunActive 已有整页翻译在进行中（由另一个控制面触发）
	ErrRunActive = errors.New("a page translation run is already active")
)
