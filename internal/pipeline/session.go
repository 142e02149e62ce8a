package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/nerdneilsfield/go-page-translator/internal/cache"
	"github.com/nerdneilsfield/go-page-translator/internal/dom"
)

// activeRunExpiry 运行活动标志的过期时间。
// 进程异常退出可能留下陈旧标志，超过该时长后视为失效。
const activeRunExpiry = 10 * time.Minute

// Config 会话配置
type Config struct {
	// TargetLang 目标语言
	TargetLang string
	// MaxBatchItems / MaxBatchChars 批次上限
	MaxBatchItems int
	MaxBatchChars int
	// Concurrency 同时在途批次上限
	Concurrency int
}

// StatusReporter 用户可见的进度指示接口。
// 状态提示/工具提示的渲染属于外部协作方，这里只定义边界。
type StatusReporter interface {
	// Start 运行开始，total 为去重后的待翻译条数
	Start(total int)
	// Progress 每条增量结果到达后调用
	Progress(completed, total int)
	// Done 运行结束
	Done(outcome RunOutcome, summary string)
}

// nopReporter 默认的空上报器
type nopReporter struct{}

func (nopReporter) Start(int)               {}
func (nopReporter) Progress(int, int)       {}
func (nopReporter) Done(RunOutcome, string) {}

// RunGuard 整页翻译的运行互斥守卫。
// 由设置存储实现：持久化"正在翻译"布尔与时间戳，防止另一个控制面
// 触发重复的并发运行。
type RunGuard interface {
	ActiveRun() (bool, time.Time)
	SetActiveRun(active bool) error
}

// Session 一次页面翻译会话的管道上下文。
// 缓存、已处理标记、分类器、回写器都归会话所有，没有模块级共享
// 状态，多个会话（或测试）彼此独立。DOM 的遍历与回写始终在
// domMu 串行化下进行，流式回调不会观察到半修改的树。
type Session struct {
	cfg        Config
	cache      *cache.Cache
	marks      *dom.Marks
	classifier *dom.Classifier
	patcher    *dom.Patcher
	runner     StreamRunner
	guard      RunGuard
	reporter   StatusReporter
	logger     *zap.Logger

	domMu sync.Mutex
}

// NewSession 创建翻译会话
func NewSession(runner StreamRunner, opts ...Option) (*Session, error) {
	if runner == nil {
		return nil, ErrNoRunner
	}

	options := sessionOptions{
		reporter: nopReporter{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.cache == nil {
		options.cache = cache.New(0)
	}

	marks := dom.NewMarks()
	return &Session{
		cfg:        options.config,
		cache:      options.cache,
		marks:      marks,
		classifier: dom.NewClassifier(marks, options.logger),
		patcher:    dom.NewPatcher(marks, options.logger),
		runner:     runner,
		guard:      options.guard,
		reporter:   options.reporter,
		logger:     options.logger,
	}, nil
}

// Marks 返回会话的已处理标记集合（供变更监听共享）
func (s *Session) Marks() *dom.Marks {
	return s.marks
}

// Classifier 返回会话的分类器（供变更监听在观察时即分类新子树）
func (s *Session) Classifier() *dom.Classifier {
	return s.classifier
}

// Cache 返回会话的翻译缓存
func (s *Session) Cache() *cache.Cache {
	return s.cache
}

// WithDOM 在 DOM 互斥下执行 fn。宿主在运行进行中修改文档
// （插入新子树、观察时分类）时使用，避免与流式回写交错。
func (s *Session) WithDOM(fn func()) {
	s.domMu.Lock()
	defer s.domMu.Unlock()
	fn()
}

// TranslatePage 对整个文档执行一次完整的翻译运行。
// 运行守卫防止另一个控制面同时触发第二次整页翻译；
// 陈旧的活动标志按过期时间忽略。
func (s *Session) TranslatePage(ctx context.Context, doc *html.Node) (*RunState, error) {
	if s.guard != nil {
		if active, since := s.guard.ActiveRun(); active && time.Since(since) < activeRunExpiry {
			return nil, ErrRunActive
		}
		if err := s.guard.SetActiveRun(true); err != nil {
			s.logger.Warn("failed to set active-run flag", zap.Error(err))
		}
		defer func() {
			if err := s.guard.SetActiveRun(false); err != nil {
				s.logger.Warn("failed to clear active-run flag", zap.Error(err))
			}
		}()
	}

	s.domMu.Lock()
	units := s.classifier.Classify(doc)
	s.domMu.Unlock()

	return s.RunUnits(ctx, units)
}

// TranslateSubtrees 对一组新插入的子树执行一次翻译运行
// （变更监听去抖后的提交路径）。不加运行守卫：变更运行是
// 已批准的整页翻译的延续。
func (s *Session) TranslateSubtrees(ctx context.Context, roots []*html.Node) (*RunState, error) {
	s.domMu.Lock()
	var units []*dom.Unit
	for _, root := range roots {
		units = append(units, s.classifier.Classify(root)...)
	}
	s.domMu.Unlock()

	return s.RunUnits(ctx, units)
}

// RunUnits 对已分类的单元执行去重、分批、调度、回写。
// 缓存命中立即回写并脱离后续流程；批次失败不影响兄弟批次，
// 运行结果由 RunState 聚合。
func (s *Session) RunUnits(ctx context.Context, units []*dom.Unit) (*RunState, error) {
	plan := PlanBatches(units, s.cache, BatcherConfig{
		MaxItems: s.cfg.MaxBatchItems,
		MaxChars: s.cfg.MaxBatchChars,
	})

	// 缓存命中：同步回写，不产生网络请求
	s.domMu.Lock()
	for _, hit := range plan.Hits {
		if err := s.patcher.Apply(hit.Unit, hit.Translated); err != nil {
			s.logger.Warn("failed to patch cached translation", zap.Error(err))
		}
	}
	s.domMu.Unlock()

	state := NewRunState(plan.UniqueCount())
	s.logger.Info("translation run planned",
		zap.String("run", state.ID),
		zap.Int("units", len(units)),
		zap.Int("cacheHits", len(plan.Hits)),
		zap.Int("unique", state.Total),
		zap.Int("batches", len(plan.Batches)))

	s.reporter.Start(state.Total)
	if len(plan.Batches) == 0 {
		s.reporter.Done(state.Outcome(), state.Summary())
		return state, nil
	}

	scheduler := NewScheduler(s.runner, s.cfg.Concurrency, s.logger)
	scheduler.Run(ctx, plan.Batches, state, func(batchIdx, itemIdx int, translated string) {
		content := plan.Batches[batchIdx][itemIdx]
		s.cache.Set(content, translated)

		s.domMu.Lock()
		for _, owner := range plan.Owners[content] {
			if err := s.patcher.Apply(owner, translated); err != nil {
				s.logger.Warn("failed to patch unit",
					zap.String("run", state.ID), zap.Error(err))
			}
		}
		s.domMu.Unlock()

		s.reporter.Progress(state.Completed(), state.Total)
	})

	s.reporter.Done(state.Outcome(), state.Summary())
	s.logger.Info("translation run finished",
		zap.String("run", state.ID),
		zap.String("outcome", state.Outcome().String()),
		zap.Int("completed", state.Completed()),
		zap.Int("failedBatches", state.FailedBatches()))
	return state, nil
}
