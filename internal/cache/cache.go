package cache

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// DefaultCapacity 默认缓存容量
const DefaultCapacity = 1024

// Stats 缓存统计信息
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// Cache 有界翻译缓存，键为归一化后的原文，值为最近一次译文。
// 容量满时按插入顺序淘汰最早的条目（FIFO，非 LRU）。
// 生命周期与一次浏览会话相同，仅在进程结束时销毁。
type Cache struct {
	capacity int
	entries  map[string]string
	order    []string // 插入顺序，order[0] 为最早插入的键
	stats    Stats
	mu       sync.RWMutex
}

// New 创建翻译缓存，capacity <= 0 时使用默认容量
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]string),
		order:    make([]string, 0, capacity),
	}
}

// NormalizeKey 归一化缓存键：去首尾空白 + Unicode 大小写折叠
func NormalizeKey(text string) string {
	return cases.Fold().String(strings.TrimSpace(text))
}

// Get 查询译文，键按归一化规则匹配（大小写、首尾空白不敏感）
func (c *Cache) Get(text string) (string, bool) {
	key := NormalizeKey(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return "", false
	}

	c.stats.Hits++
	return value, true
}

// Set 写入译文。键已存在时只更新值，不改变淘汰顺序；
// 新键在容量满时先淘汰最早插入的条目。
func (c *Cache) Set(original, translated string) {
	key := NormalizeKey(original)
	if key == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = translated
		return
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		c.stats.Evictions++
	}

	c.entries[key] = translated
	c.order = append(c.order, key)
}

// Len 返回当前条目数
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear 清空缓存
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]string)
	c.order = c.order[:0]
	c.stats = Stats{}
}

// Stats 返回命中统计
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}
