package store

import (
	"sync"
	"time"

	"skumapper/internal/model"
)

// MappingState 映射缓存的当前状态
type MappingState struct {
	Loaded     bool      `json:"loaded"`
	Path       string    `json:"path"`
	Attributes int       `json:"attributes"`
	LoadedAt   time.Time `json:"loadedAt"`
	LoadError  string    `json:"loadError,omitempty"`
}

// TransformStats 处理计数（进程内累计）
type TransformStats struct {
	TransformCount  int       `json:"transformCount"`
	ProcessedRows   int       `json:"processedRows"`
	FailureCount    int       `json:"failureCount"`
	LastTransformAt time.Time `json:"lastTransformAt"`
}

// MemoryStore 内存状态存储
// 只保存进程生命周期内的只读映射缓存和处理计数，不落盘
type MemoryStore struct {
	mapping   *model.Mapping
	state     MappingState
	stats     TransformStats
	startedAt time.Time
	mu        sync.RWMutex
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		startedAt: time.Now(),
	}
}

// ReplaceMapping 替换映射缓存（加载成功时调用）
func (s *MemoryStore) ReplaceMapping(m *model.Mapping, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mapping = m
	s.state = MappingState{
		Loaded:     true,
		Path:       path,
		Attributes: m.Len(),
		LoadedAt:   time.Now(),
	}
}

// SetMappingError 记录映射加载失败（缓存保持为空）
func (s *MemoryStore) SetMappingError(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mapping = nil
	s.state = MappingState{
		Loaded:    false,
		Path:      path,
		LoadError: err.Error(),
	}
}

// Mapping 获取缓存的映射表
func (s *MemoryStore) Mapping() (*model.Mapping, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.mapping == nil {
		return nil, false
	}
	return s.mapping, true
}

// MappingState 获取映射缓存状态
func (s *MemoryStore) MappingState() MappingState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// RecordTransform 记录一次成功的转换
func (s *MemoryStore) RecordTransform(rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.TransformCount++
	s.stats.ProcessedRows += rows
	s.stats.LastTransformAt = time.Now()
}

// RecordFailure 记录一次失败的转换
func (s *MemoryStore) RecordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.FailureCount++
}

// Stats 获取处理计数
func (s *MemoryStore) Stats() TransformStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// StartedAt 进程启动时间
func (s *MemoryStore) StartedAt() time.Time {
	return s.startedAt
}
