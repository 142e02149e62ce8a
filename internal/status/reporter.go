// Package status 在终端上渲染翻译运行的用户可见状态：
// 进行中的进度行、成功/部分/失败的收尾提示、以及提示自动消失
// 前的停留时长（失败停留更久，给用户看清错误的时间）。
package status

import (
	"fmt"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/pterm/pterm"

	"github.com/nerdneilsfield/go-page-translator/internal/pipeline"
)

// 提示停留时长
const (
	SuccessLinger = 2 * time.Second
	FailureLinger = 5 * time.Second
)

// maxLineWidth 进度行的显示宽度上限
const maxLineWidth = 80

// TerminalReporter 终端状态指示器，实现 pipeline.StatusReporter。
type TerminalReporter struct {
	mu      sync.Mutex
	spinner *pterm.SpinnerPrinter
	total   int
	outcome pipeline.RunOutcome
	done    bool
	doneAt  time.Time

	// 时间源，测试可注入
	now   func() time.Time
	sleep func(time.Duration)
}

// NewTerminalReporter 创建终端指示器
func NewTerminalReporter() *TerminalReporter {
	return &TerminalReporter{
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// Start 显示进度指示。上一次运行的终态提示停留未满时
// （变更运行紧跟整页翻译的场景），先等足剩余停留时间再覆盖，
// 失败提示因此保证有被看清的机会。
func (r *TerminalReporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		if rem := r.lingerLocked() - r.now().Sub(r.doneAt); rem > 0 {
			r.mu.Unlock()
			r.sleep(rem)
			r.mu.Lock()
		}
	}

	r.total = total
	r.done = false
	spinner, err := pterm.DefaultSpinner.Start(r.line(0, total))
	if err != nil {
		// 退化为普通输出（非 TTY 环境）
		fmt.Println(r.line(0, total))
		return
	}
	r.spinner = spinner
}

// Progress 更新进度行
func (r *TerminalReporter) Progress(completed, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.spinner != nil {
		r.spinner.UpdateText(r.line(completed, total))
	}
}

// Done 以终态收尾进度指示
func (r *TerminalReporter) Done(outcome pipeline.RunOutcome, summary string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.outcome = outcome
	r.done = true
	r.doneAt = r.now()
	text := runewidth.Truncate(summary, maxLineWidth, "…")

	if r.spinner == nil {
		fmt.Println(text)
		return
	}
	switch outcome {
	case pipeline.OutcomeSuccess:
		r.spinner.Success(color.GreenString(text))
	case pipeline.OutcomePartial:
		r.spinner.Warning(color.YellowString(text))
	default:
		r.spinner.Fail(color.RedString(text))
	}
	r.spinner = nil
}

// Linger 返回终态提示应停留的时长。失败停留更久。
func (r *TerminalReporter) Linger() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lingerLocked()
}

func (r *TerminalReporter) lingerLocked() time.Duration {
	if !r.done {
		return 0
	}
	if r.outcome == pipeline.OutcomeSuccess {
		return SuccessLinger
	}
	return FailureLinger
}

// line 渲染进度行文案
func (r *TerminalReporter) line(completed, total int) string {
	if total <= 0 {
		return "Translating..."
	}
	return runewidth.Truncate(
		fmt.Sprintf("Translating... %d/%d", completed, total),
		maxLineWidth, "…")
}
