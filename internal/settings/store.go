// Package settings 提供持久化的键值设置存储。
// 端点、模型、目标语言、最近使用的语言、以及"正在翻译"运行
// 守卫都存放在一个 TOML 文件里，每次写入原子落盘，多个控制面
// 读到同一份状态。
package settings

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// 已知键名
const (
	KeyEndpoint        = "endpoint"
	KeyModel           = "model"
	KeyTargetLang      = "target_lang"
	KeyRecentLanguages = "recent_languages"
	KeyActiveRun       = "translating_active"
	KeyActiveRunSince  = "translating_since"
)

// MaxRecentLanguages 最近语言列表的长度上限
const MaxRecentLanguages = 5

// DefaultFileName 默认设置文件名
const DefaultFileName = "settings.toml"

// Store 文件落盘的设置存储。
// 值在内存 map 中维护，每次 Set 后整体写回文件（先写临时文件
// 再改名，崩溃不会留下半写的设置）。
type Store struct {
	path string

	mu     sync.RWMutex
	values map[string]any
}

// Open 打开（或创建）设置存储。文件不存在视为空存储。
func Open(path string) (*Store, error) {
	s := &Store{
		path:   path,
		values: make(map[string]any),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := toml.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}

// Get 读取任意键
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// GetString 读取字符串键，缺失或类型不符返回空串
func (s *Store) GetString(key string) string {
	v, ok := s.Get(key)
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return str
}

// GetBool 读取布尔键
func (s *Store) GetBool(key string) bool {
	v, ok := s.Get(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Set 写入任意键并落盘
func (s *Store) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.saveLocked()
}

// Delete 删除键并落盘
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.saveLocked()
}

// Keys 返回所有键名
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// Endpoint 返回流服务端点
func (s *Store) Endpoint() string {
	return s.GetString(KeyEndpoint)
}

// SetEndpoint 设置流服务端点
func (s *Store) SetEndpoint(endpoint string) error {
	return s.Set(KeyEndpoint, endpoint)
}

// Model 返回模型 ID
func (s *Store) Model() string {
	return s.GetString(KeyModel)
}

// SetModel 设置模型 ID
func (s *Store) SetModel(model string) error {
	return s.Set(KeyModel, model)
}

// TargetLang 返回目标语言
func (s *Store) TargetLang() string {
	return s.GetString(KeyTargetLang)
}

// SetTargetLang 设置目标语言并更新最近语言列表
func (s *Store) SetTargetLang(lang string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[KeyTargetLang] = lang
	s.values[KeyRecentLanguages] = pushRecent(s.recentLocked(), lang)
	return s.saveLocked()
}

// RecentLanguages 返回最近使用的语言，最新在前
func (s *Store) RecentLanguages() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recentLocked()
}

// ActiveRun 返回运行守卫状态与其时间戳。
// 时间戳解析失败时按零值处理，守卫会被视为过期。
func (s *Store) ActiveRun() (bool, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active, _ := s.values[KeyActiveRun].(bool)
	if !active {
		return false, time.Time{}
	}
	raw, _ := s.values[KeyActiveRunSince].(string)
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return true, time.Time{}
	}
	return true, since
}

// SetActiveRun 记录或清除运行守卫
func (s *Store) SetActiveRun(active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[KeyActiveRun] = active
	if active {
		s.values[KeyActiveRunSince] = time.Now().Format(time.RFC3339)
	} else {
		delete(s.values, KeyActiveRunSince)
	}
	return s.saveLocked()
}

// recentLocked 读取最近语言列表（持锁调用）。
// TOML 反序列化进 map[string]any 时数组元素是 any，这里做归一。
func (s *Store) recentLocked() []string {
	raw, ok := s.values[KeyRecentLanguages]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// pushRecent 把 lang 移到列表头部并截断到上限
func pushRecent(recent []string, lang string) []string {
	out := make([]string, 0, len(recent)+1)
	out = append(out, lang)
	for _, l := range recent {
		if l != lang {
			out = append(out, l)
		}
	}
	if len(out) > MaxRecentLanguages {
		out = out[:MaxRecentLanguages]
	}
	return out
}

// saveLocked 原子写回设置文件（持锁调用）
func (s *Store) saveLocked() error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s.values); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.toml")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
