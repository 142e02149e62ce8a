package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nerdneilsfield/go-page-translator/internal/cache"
	"github.com/nerdneilsfield/go-page-translator/internal/pipeline"
)

// renderSummaryTable 渲染运行结束后的总结表格
func renderSummaryTable(w io.Writer, state *pipeline.RunState, stats cache.Stats, elapsed time.Duration) {
	if w == nil || state == nil {
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)

	tw.AppendRow(table.Row{"项", "值"})
	tw.AppendSeparator()
	tw.AppendRow(table.Row{"结果", outcomeLabel(state.Outcome())})
	tw.AppendRow(table.Row{"待翻译条数", state.Total})
	tw.AppendRow(table.Row{"已翻译", state.Completed()})
	if state.FailedBatches() > 0 {
		tw.AppendRow(table.Row{"失败批次", state.FailedBatches()})
		if err := state.LastError(); err != nil {
			tw.AppendRow(table.Row{"最近错误", err.Error()})
		}
	}
	tw.AppendSeparator()
	tw.AppendRow(table.Row{"缓存命中", stats.Hits})
	tw.AppendRow(table.Row{"缓存未命中", stats.Misses})
	if stats.Evictions > 0 {
		tw.AppendRow(table.Row{"缓存淘汰", stats.Evictions})
	}
	tw.AppendSeparator()
	tw.AppendRow(table.Row{"总耗时", formatDuration(elapsed)})

	tw.SetStyle(table.StyleLight)
	tw.Render()
	fmt.Fprintln(w)
}

// outcomeLabel 结果的彩色文案
func outcomeLabel(outcome pipeline.RunOutcome) string {
	switch outcome {
	case pipeline.OutcomeSuccess:
		return color.GreenString("成功")
	case pipeline.OutcomePartial:
		return color.YellowString("部分成功")
	default:
		return color.RedString("失败")
	}
}

// formatDuration 耗时文案
func formatDuration(d time.Duration) string {
	if d >= time.Minute {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
