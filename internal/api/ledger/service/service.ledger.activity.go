package service

import (
	"sync"
	"time"
)

// ActivityEntry là một dòng trong nhật ký hoạt động của ledger
type ActivityEntry struct {
	At       int64  `json:"at"`                 // Thời điểm (UnixMilli)
	Action   string `json:"action"`             // Tên thao tác (createJob, updateMetrics, ...)
	RunID    string `json:"runId"`              // Run id liên quan
	ClientID string `json:"clientId,omitempty"` // Client id, rỗng với bản ghi job
	Source   string `json:"source,omitempty"`   // Nguồn gọi
	Outcome  string `json:"outcome"`            // Kết quả: ok, duplicate, hoặc mã lỗi
}

// ActivityLog là ring buffer thread-safe giữ N hoạt động gần nhất của ledger,
// phục vụ chẩn đoán qua HTTP mà không cần đọc file log.
type ActivityLog struct {
	mu      sync.Mutex
	entries []ActivityEntry
	next    int
	full    bool
}

// NewActivityLog khởi tạo nhật ký với sức chứa size (tối thiểu 1)
func NewActivityLog(size int) *ActivityLog {
	if size < 1 {
		size = 1
	}
	return &ActivityLog{entries: make([]ActivityEntry, size)}
}

// Record ghi một hoạt động mới, đè lên hoạt động cũ nhất khi buffer đầy
func (l *ActivityLog) Record(entry ActivityEntry) {
	if entry.At == 0 {
		entry.At = time.Now().UnixMilli()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[l.next] = entry
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
}

// Entries trả về bản sao các hoạt động theo thứ tự cũ nhất -> mới nhất
func (l *ActivityLog) Entries() []ActivityEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.full {
		out := make([]ActivityEntry, l.next)
		copy(out, l.entries[:l.next])
		return out
	}
	out := make([]ActivityEntry, 0, len(l.entries))
	out = append(out, l.entries[l.next:]...)
	out = append(out, l.entries[:l.next]...)
	return out
}
