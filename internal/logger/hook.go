package logger

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// AsyncHook là một hook để ghi log bất đồng bộ, tránh blocking caller
// Hook này buffer log entries và ghi chúng vào các writers trong một goroutine riêng
type AsyncHook struct {
	writers    []io.Writer // Danh sách các writers (file, stdout, etc.)
	entries    chan *logrus.Entry
	wg         sync.WaitGroup
	mu         sync.Mutex
	closed     bool
	bufferSize int
}

// NewAsyncHookWithWriters tạo một async hook mới với nhiều writers
// bufferSize: kích thước buffer cho log entries (mặc định 1000)
func NewAsyncHookWithWriters(writers []io.Writer, bufferSize int) *AsyncHook {
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	hook := &AsyncHook{
		writers:    writers,
		entries:    make(chan *logrus.Entry, bufferSize),
		bufferSize: bufferSize,
	}

	hook.wg.Add(1)
	go hook.processEntries()

	return hook
}

// Levels trả về các log levels mà hook này xử lý
func (h *AsyncHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire được gọi mỗi khi có log entry mới.
// Hàm này không block — chỉ đưa entry vào channel; nếu channel đầy thì bỏ qua entry.
func (h *AsyncHook) Fire(entry *logrus.Entry) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()

	if closed {
		// Hook đã đóng: ghi trực tiếp (fallback)
		return h.write(entry)
	}

	// Dup chỉ copy Data/Time/Context — Level và Message phải chép tay,
	// nếu không entry ghi ra sẽ mang level zero-value (panic) và message rỗng
	dup := entry.Dup()
	dup.Level = entry.Level
	dup.Message = entry.Message

	// Non-blocking send: nếu channel đầy, bỏ qua entry này để không block caller
	select {
	case h.entries <- dup:
	default:
	}
	return nil
}

// processEntries xử lý các entries từ channel trong goroutine riêng
func (h *AsyncHook) processEntries() {
	defer h.wg.Done()
	for entry := range h.entries {
		_ = h.write(entry)
	}
}

// write format và ghi một entry vào tất cả writers
func (h *AsyncHook) write(entry *logrus.Entry) error {
	var data []byte
	var err error

	if entry.Logger != nil && entry.Logger.Formatter != nil {
		data, err = entry.Logger.Formatter.Format(entry)
	} else {
		var line string
		line, err = entry.String()
		data = []byte(line)
	}
	if err != nil {
		return err
	}

	for _, writer := range h.writers {
		_, _ = writer.Write(data)
	}
	return nil
}

// Close đóng hook và chờ ghi hết các entries còn lại trong buffer
func (h *AsyncHook) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()

	close(h.entries)
	h.wg.Wait()
}
