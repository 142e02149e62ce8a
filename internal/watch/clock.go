package watch

import "time"

// Clock 抽象定时器来源，便于在测试中注入假时钟。
type Clock interface {
	// AfterFunc 在 d 之后于独立 goroutine 中调用 f
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer 可停止的定时器
type Timer interface {
	// Stop 阻止定时器触发，返回是否成功阻止
	Stop() bool
}

// realClock 基于标准库的时钟
type realClock struct{}

// NewRealClock 返回真实时钟
func NewRealClock() Clock {
	return realClock{}
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
