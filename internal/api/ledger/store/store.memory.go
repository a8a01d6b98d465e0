package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lead_harvest/internal/common"
)

// MemoryRecordStore là stub in-memory của RecordStore, dùng cho test và chế độ local.
// Nó mô phỏng đúng hành vi của store thật: Create KHÔNG exclusive — hai lần
// Create với cùng khóa logic đều thành công và tạo hai bản ghi.
type MemoryRecordStore struct {
	mu     sync.Mutex
	tables map[string][]*Record
	nextID int

	// FailFindOnce / FailCreateOnce: số lần thao tác kế tiếp trả lỗi transient,
	// dùng để test retry policy.
	FailFindOnce   int
	FailCreateOnce int
}

// NewMemoryRecordStore tạo store in-memory rỗng
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{tables: make(map[string][]*Record)}
}

// FindOne tìm bản ghi đầu tiên khớp filter
func (s *MemoryRecordStore) FindOne(ctx context.Context, table string, filter Filter) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailFindOnce > 0 {
		s.FailFindOnce--
		return nil, common.ErrStoreTransient
	}

	for _, rec := range s.tables[table] {
		if matches(rec, filter) {
			return cloneRecord(rec), nil
		}
	}
	return nil, common.ErrNotFound
}

// FindByID đọc một bản ghi theo id do store cấp
func (s *MemoryRecordStore) FindByID(ctx context.Context, table string, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailFindOnce > 0 {
		s.FailFindOnce--
		return nil, common.ErrStoreTransient
	}

	for _, rec := range s.tables[table] {
		if rec.ID == id {
			return cloneRecord(rec), nil
		}
	}
	return nil, common.ErrNotFound
}

// Find tìm tất cả bản ghi khớp filter
func (s *MemoryRecordStore) Find(ctx context.Context, table string, filter Filter) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Record
	for _, rec := range s.tables[table] {
		if matches(rec, filter) {
			out = append(out, cloneRecord(rec))
		}
	}
	return out, nil
}

// Create tạo bản ghi mới — không kiểm tra trùng, đúng như store thật
func (s *MemoryRecordStore) Create(ctx context.Context, table string, fields map[string]interface{}) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailCreateOnce > 0 {
		s.FailCreateOnce--
		return nil, common.ErrStoreTransient
	}

	s.nextID++
	rec := &Record{
		ID:     fmt.Sprintf("rec%06d", s.nextID),
		Fields: map[string]interface{}{},
	}
	for k, v := range fields {
		rec.Fields[k] = v
	}
	now := time.Now().UnixMilli()
	rec.Fields["createdAt"] = now
	rec.Fields["updatedAt"] = now

	s.tables[table] = append(s.tables[table], rec)
	return cloneRecord(rec), nil
}

// UpdateByID cập nhật partial theo id
func (s *MemoryRecordStore) UpdateByID(ctx context.Context, table string, id string, fields map[string]interface{}) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.tables[table] {
		if rec.ID == id {
			for k, v := range fields {
				rec.Fields[k] = v
			}
			rec.Fields["updatedAt"] = time.Now().UnixMilli()
			return cloneRecord(rec), nil
		}
	}
	return nil, common.ErrNotFound
}

// Count đếm số bản ghi khớp filter (tiện ích cho test kiểm tra số row thực)
func (s *MemoryRecordStore) Count(table string, filter Filter) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, rec := range s.tables[table] {
		if matches(rec, filter) {
			n++
		}
	}
	return n
}

// matches kiểm tra exact-match AND trên mọi field của filter.
// So sánh số qua int64 vì giá trị có thể là int/int32/int64/float64 tùy nguồn ghi.
func matches(rec *Record, filter Filter) bool {
	for k, want := range filter {
		got, exists := rec.Fields[k]
		if !exists {
			return false
		}
		if wantN, ok := toInt64(want); ok {
			gotN, ok2 := toInt64(got)
			if !ok2 || wantN != gotN {
				return false
			}
			continue
		}
		if got != want {
			return false
		}
	}
	return true
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func cloneRecord(rec *Record) *Record {
	out := &Record{ID: rec.ID, Fields: make(map[string]interface{}, len(rec.Fields))}
	for k, v := range rec.Fields {
		switch m := v.(type) {
		case map[string]interface{}:
			mc := make(map[string]interface{}, len(m))
			for mk, mv := range m {
				mc[mk] = mv
			}
			out.Fields[k] = mc
		case map[string]int64:
			mc := make(map[string]int64, len(m))
			for mk, mv := range m {
				mc[mk] = mv
			}
			out.Fields[k] = mc
		default:
			out.Fields[k] = v
		}
	}
	return out
}
