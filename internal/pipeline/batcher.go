package pipeline

import (
	"github.com/nerdneilsfield/go-page-translator/internal/cache"
	"github.com/nerdneilsfield/go-page-translator/internal/dom"
)

// 批次上限默认值
const (
	DefaultMaxBatchItems = 20
	DefaultMaxBatchChars = 4000
)

// BatcherConfig 去重分批配置
type BatcherConfig struct {
	// MaxItems 单批最大条目数
	MaxItems int
	// MaxChars 单批累计字符上限。仅在批内已有条目时生效，
	// 因此超长的单条文本仍会独占一批。
	MaxChars int
}

// CacheHit 缓存命中的单元，可立即回写，不再参与分批
type CacheHit struct {
	Unit       *dom.Unit
	Translated string
}

// BatchPlan 一次运行的批次规划。
// Batches 中的原文互不重复且顺序确定（按首次出现顺序）；
// Owners 记录每条原文对应的全部单元，流式结果到达时据此回写。
type BatchPlan struct {
	Batches [][]string
	Owners  map[string][]*dom.Unit
	Hits    []CacheHit
}

// UniqueCount 返回待翻译的去重原文总数
func (p *BatchPlan) UniqueCount() int {
	n := 0
	for _, b := range p.Batches {
		n += len(b)
	}
	return n
}

// PlanBatches 汇总单元内容、剔除缓存命中、按内容精确去重，
// 再贪心装入大小受限的批次。
func PlanBatches(units []*dom.Unit, c *cache.Cache, cfg BatcherConfig) *BatchPlan {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultMaxBatchItems
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultMaxBatchChars
	}

	plan := &BatchPlan{Owners: make(map[string][]*dom.Unit)}

	// 缓存命中立即出列；未命中的按首见顺序去重
	var unique []string
	seen := make(map[string]bool)
	for _, u := range units {
		if c != nil {
			if translated, ok := c.Get(u.Content); ok {
				plan.Hits = append(plan.Hits, CacheHit{Unit: u, Translated: translated})
				continue
			}
		}
		plan.Owners[u.Content] = append(plan.Owners[u.Content], u)
		if !seen[u.Content] {
			seen[u.Content] = true
			unique = append(unique, u.Content)
		}
	}

	// 贪心装批：条目数或累计字符任一超限即封批。
	// 字符上限只在批内非空时应用，单条超长文本独占一批。
	var current []string
	chars := 0
	for _, text := range unique {
		size := len([]rune(text))
		if len(current) > 0 && (len(current) >= cfg.MaxItems || chars+size > cfg.MaxChars) {
			plan.Batches = append(plan.Batches, current)
			current = nil
			chars = 0
		}
		current = append(current, text)
		chars += size
	}
	if len(current) > 0 {
		plan.Batches = append(plan.Batches, current)
	}

	return plan
}
