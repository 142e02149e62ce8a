// Package watch 监听宿主侧的 DOM 变更通知并去抖成翻译任务。
// 宿主在把新子树挂到文档上之后调用 Observe，新增内容立即完成
// 分类与标记，但翻译提交会等待一段静默期：连续的插入（无限
// 滚动、聊天流）聚成一次管道运行，而不是每条变更各跑一次。
package watch

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/nerdneilsfield/go-page-translator/internal/dom"
)

// 默认去抖参数
const (
	DefaultQuiet      = 500 * time.Millisecond
	DefaultMaxPending = 256
)

// State 观察器状态
type State int

const (
	// StateIdle 无待提交内容
	StateIdle State = iota
	// StateAccumulating 有待提交单元，静默计时中
	StateAccumulating
	// StateDraining 正在提交累积的单元
	StateDraining
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	case StateDraining:
		return "draining"
	default:
		return "unknown"
	}
}

// Config 观察器配置
type Config struct {
	// Quiet 静默期：最后一次变更之后等待这么久才提交
	Quiet time.Duration
	// MaxPending 累积上限，达到后立即提交而不再等静默期
	MaxPending int
	// Clock 定时器来源，nil 使用真实时钟
	Clock Clock
}

// Watcher 变更观察器。分类在 Observe 时同步完成（单元在创建时
// 即被标记，重复通知同一子树不会产生重复单元），提交在静默期
// 结束后异步触发。
type Watcher struct {
	classify func(root *html.Node) []*dom.Unit
	submit   func(units []*dom.Unit)

	quiet      time.Duration
	maxPending int
	clock      Clock
	logger     *zap.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	state    State
	pending  []*dom.Unit
	timer    Timer
	stopped  bool
	draining int
}

// New 创建观察器。classify 对一棵新增子树返回可翻译单元；
// submit 收到一批待翻译单元（在观察器自己的 goroutine 或
// Flush 调用者的 goroutine 中执行）。
func New(classify func(root *html.Node) []*dom.Unit, submit func(units []*dom.Unit), cfg Config, logger *zap.Logger) *Watcher {
	if cfg.Quiet <= 0 {
		cfg.Quiet = DefaultQuiet
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = DefaultMaxPending
	}
	if cfg.Clock == nil {
		cfg.Clock = NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{
		classify:   classify,
		submit:     submit,
		quiet:      cfg.Quiet,
		maxPending: cfg.MaxPending,
		clock:      cfg.Clock,
		logger:     logger,
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// State 返回当前状态
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// PendingCount 返回待提交单元数
func (w *Watcher) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Observe 通知观察器一批新挂载的子树。子树立即分类并标记；
// 产出的单元进入待提交队列并重置静默计时。无单元产出的通知
// 不会启动计时。
func (w *Watcher) Observe(roots ...*html.Node) {
	w.mu.Lock()

	if w.stopped {
		w.mu.Unlock()
		return
	}

	added := 0
	for _, root := range roots {
		units := w.classify(root)
		w.pending = append(w.pending, units...)
		added += len(units)
	}
	if added == 0 && len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}

	w.logger.Debug("mutation observed",
		zap.Int("new_units", added),
		zap.Int("pending", len(w.pending)),
	)

	if len(w.pending) >= w.maxPending {
		w.drainLocked()
		return
	}

	w.state = StateAccumulating
	w.resetTimerLocked()
	w.mu.Unlock()
}

// Flush 立即提交累积的单元，不等静默期。返回时保证没有在途
// 提交仍在执行：静默期触发的提交正在跑时，Flush 会等它落定，
// 调用方随后渲染或改写文档不会与回写撞车。
func (w *Watcher) Flush() {
	w.mu.Lock()
	if len(w.pending) > 0 {
		w.drainLocked()
		w.mu.Lock()
	}
	for w.draining > 0 {
		w.cond.Wait()
	}
	w.mu.Unlock()
}

// Stop 停止观察器并丢弃未提交的单元。之后的 Observe 为空操作。
// 与 Flush 一样等待在途提交落定后才返回。
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopped = true
	w.pending = nil
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	for w.draining > 0 {
		w.cond.Wait()
	}
	w.state = StateIdle
}

// resetTimerLocked 重启静默计时（持锁调用）
func (w *Watcher) resetTimerLocked() {
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = w.clock.AfterFunc(w.quiet, w.onQuiet)
}

// onQuiet 静默期到期回调
func (w *Watcher) onQuiet() {
	w.mu.Lock()
	if w.stopped || len(w.pending) == 0 {
		w.state = StateIdle
		w.mu.Unlock()
		return
	}
	w.drainLocked()
}

// drainLocked 提交累积的单元。进入时持锁，提交期间放锁，
// 使 submit 执行中到达的 Observe 不被阻塞；提交期间新累积
// 的单元会重新开始计时。
func (w *Watcher) drainLocked() {
	units := w.pending
	w.pending = nil
	w.state = StateDraining
	w.draining++
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	w.logger.Debug("draining mutation buffer", zap.Int("units", len(units)))
	w.submit(units)

	w.mu.Lock()
	w.draining--
	if w.draining == 0 {
		w.cond.Broadcast()
	}
	if w.stopped {
		w.state = StateIdle
		w.mu.Unlock()
		return
	}
	if len(w.pending) > 0 {
		w.state = StateAccumulating
		w.resetTimerLocked()
	} else {
		w.state = StateIdle
	}
	w.mu.Unlock()
}
