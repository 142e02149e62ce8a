package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// DefaultConcurrency 同时在途批次的硬上限
const DefaultConcurrency = 2

// StreamRunner 每批次打开一条流式通道的客户端。
// onResult 在每条增量结果到达时立即回调（index 为批内数组下标，
// 到达顺序不保证递增）；返回 nil 表示收到成功终止信号，
// 返回错误表示批次失败——此前已交付的结果保持有效。
type StreamRunner interface {
	TranslateBatch(ctx context.Context, batch []string, onResult func(index int, translated string)) error
}

// Scheduler 以固定并发上限分波运行批次。
// 每一波最多启动 concurrency 个批次并等待全部落定（成功或失败，
// 失败不会中止同波的兄弟批次），再启动下一波，杜绝无界扇出。
// 批次失败不在此层重试：瞬时错误的重试由远端调用层在上报失败
// 之前完成。
type Scheduler struct {
	runner      StreamRunner
	concurrency int
	logger      *zap.Logger
}

// NewScheduler 创建调度器，concurrency <= 0 时使用默认上限
func NewScheduler(runner StreamRunner, concurrency int, logger *zap.Logger) *Scheduler {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		runner:      runner,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run 运行全部批次并把结果事件汇入 state。
// onResult 对每条有效的增量结果调用一次，batchIdx/itemIdx 唯一定位
// 批内原文；越界下标视为协议噪声，记日志后丢弃。
func (s *Scheduler) Run(ctx context.Context, batches [][]string, state *RunState, onResult func(batchIdx, itemIdx int, translated string)) {
	for start := 0; start < len(batches); start += s.concurrency {
		end := start + s.concurrency
		if end > len(batches) {
			end = len(batches)
		}

		var wg sync.WaitGroup
		for bi := start; bi < end; bi++ {
			wg.Add(1)
			go func(bi int) {
				defer wg.Done()
				batch := batches[bi]

				err := s.runner.TranslateBatch(ctx, batch, func(i int, translated string) {
					if i < 0 || i >= len(batch) {
						s.logger.Warn("result index out of range, dropping",
							zap.Int("batch", bi), zap.Int("index", i))
						return
					}
					state.AddCompleted()
					onResult(bi, i, translated)
				})
				if err != nil {
					state.RecordBatchError(err)
					s.logger.Warn("batch failed",
						zap.Int("batch", bi),
						zap.Int("size", len(batch)),
						zap.Error(err))
				}
			}(bi)
		}
		wg.Wait()

		// 上下文取消后不再开启新的波
		if ctx.Err() != nil {
			return
		}
	}
}
