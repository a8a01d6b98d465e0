package service

import (
	"sync"
)

// RecordHandleCache là cache in-process cho HANDLE (record id) của các bản ghi
// run đang hoạt động. Key là (runId, clientId); với bản ghi job thì clientId rỗng.
//
// Cache CHỈ giữ handle, không giữ field: nhiều process độc lập có thể ghi lên
// cùng một bản ghi, nên mọi thao tác read-modify-write phải đọc lại field mới
// nhất từ store trước khi merge — handle chỉ giúp bỏ qua bước tra cứu theo
// filter. Handle chết (bản ghi bị xóa ngoài luồng) thì caller Invalidate và
// tìm lại từ store; không bao giờ fallback sang create.
type RecordHandleCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewRecordHandleCache khởi tạo cache rỗng
func NewRecordHandleCache() *RecordHandleCache {
	return &RecordHandleCache{entries: make(map[string]string)}
}

func cacheKey(runID string, clientID string) string {
	return runID + "|" + clientID
}

// Get trả về handle đã cache cho cặp (runId, clientId), rỗng nếu chưa có
func (c *RecordHandleCache) Get(runID string, clientID string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[cacheKey(runID, clientID)]
}

// Put lưu handle của bản ghi vào cache
func (c *RecordHandleCache) Put(runID string, clientID string, id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(runID, clientID)] = id
}

// Invalidate xóa handle khỏi cache (gọi khi update/đọc theo id trả về not-found)
func (c *RecordHandleCache) Invalidate(runID string, clientID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(runID, clientID))
}

// Len trả về số handle đang cache
func (c *RecordHandleCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
