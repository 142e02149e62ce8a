package pipeline

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// RunOutcome 运行结果分类
type RunOutcome int

const (
	// OutcomeSuccess 全部批次成功
	OutcomeSuccess RunOutcome = iota
	// OutcomePartial 部分成功部分失败
	OutcomePartial
	// OutcomeFailure 没有任何成功结果
	OutcomeFailure
)

// String 返回结果名称
func (o RunOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomePartial:
		return "partial"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// RunState 单次运行（首次整页扫描或一组去抖后的变更）的进度与错误状态。
// 驱动用户可见的进度指示，运行结束后即丢弃。
type RunState struct {
	// ID 运行标识，用于日志关联
	ID string
	// Total 本次运行待翻译的去重原文总数
	Total int

	mu            sync.Mutex
	completed     int
	failedBatches int
	lastErr       error
}

// NewRunState 创建运行状态
func NewRunState(total int) *RunState {
	return &RunState{
		ID:    uuid.New().String(),
		Total: total,
	}
}

// AddCompleted 每条增量结果到达时递增完成数
func (s *RunState) AddCompleted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed++
	return s.completed
}

// RecordBatchError 记录一个批次的失败
func (s *RunState) RecordBatchError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedBatches++
	s.lastErr = err
}

// Completed 返回已完成的原文条数
func (s *RunState) Completed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// FailedBatches 返回失败批次数
func (s *RunState) FailedBatches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failedBatches
}

// LastError 返回最近一次批次错误
func (s *RunState) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Outcome 运行结果：零错误为成功，有成有败为部分成功，零成功为失败
func (s *RunState) Outcome() RunOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.failedBatches == 0:
		return OutcomeSuccess
	case s.completed > 0:
		return OutcomePartial
	default:
		return OutcomeFailure
	}
}

// Summary 生成面向用户的结果文案
func (s *RunState) Summary() string {
	switch s.Outcome() {
	case OutcomeSuccess:
		return "Translation complete!"
	case OutcomePartial:
		return fmt.Sprintf("%d/%d translated", s.Completed(), s.Total)
	default:
		if err := s.LastError(); err != nil {
			return err.Error()
		}
		return "Translation failed"
	}
}
