package streamclient

import (
	"encoding/json"
	"fmt"
)

// EventType 流事件类型
type EventType string

const (
	// EventTranslation 一条增量翻译结果
	EventTranslation EventType = "translation"
	// EventDone 成功终止信号
	EventDone EventType = "done"
	// EventError 失败终止信号
	EventError EventType = "error"
)

// Event 通道边界处校验过的标记联合。
// 远端按任意顺序发送零或多条 translation 事件（Index 指向请求数组
// 的位置），随后恰好一条 done 或 error 终止事件。
type Event struct {
	Type        EventType
	Index       int
	Translation string
	Cached      bool
	Err         string
}

// wireEvent 线上格式
type wireEvent struct {
	Type        string `json:"type"`
	Index       *int   `json:"index,omitempty"`
	Translation string `json:"translation,omitempty"`
	Cached      bool   `json:"cached,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ParseEvent 解析并校验一条流事件。
// 未知类型、缺失下标等畸形负载在边界处拒绝，不进入管道。
func ParseEvent(data []byte) (*Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("malformed stream event: %w", err)
	}

	switch EventType(w.Type) {
	case EventTranslation:
		if w.Index == nil {
			return nil, fmt.Errorf("translation event without index")
		}
		if *w.Index < 0 {
			return nil, fmt.Errorf("translation event with negative index %d", *w.Index)
		}
		return &Event{
			Type:        EventTranslation,
			Index:       *w.Index,
			Translation: w.Translation,
			Cached:      w.Cached,
		}, nil

	case EventDone:
		return &Event{Type: EventDone}, nil

	case EventError:
		return &Event{Type: EventError, Err: w.Error}, nil

	default:
		return nil, fmt.Errorf("unknown stream event type %q", w.Type)
	}
}

// batchRequest 批次翻译请求体
type batchRequest struct {
	Batch          []string `json:"batch"`
	TargetLang     string   `json:"targetLang,omitempty"`
	PreserveFormat bool     `json:"preserveFormat,omitempty"`
}
