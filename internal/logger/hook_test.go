package logger

import (
	"bytes"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestAsyncHook_GiuNguyenLevelVaMessage(t *testing.T) {
	var buf bytes.Buffer
	hook := NewAsyncHookWithWriters([]io.Writer{&buf}, 10)

	log := logrus.New()
	log.SetOutput(io.Discard)
	log.AddHook(hook)

	log.WithField("run_id", "250101-000000").Info("Đã tạo bản ghi job run")
	log.Warn("Counter bị từ chối")

	// Close chờ goroutine ghi hết buffer nên đọc sau đó là deterministic
	hook.Close()

	out := buf.String()
	assert.Contains(t, out, "level=info")
	assert.Contains(t, out, "level=warning")
	assert.Contains(t, out, "Đã tạo bản ghi job run")
	assert.Contains(t, out, "Counter bị từ chối")
	assert.Contains(t, out, "run_id=250101-000000")
	assert.NotContains(t, out, "level=panic")
}

func TestAsyncHook_GhiTrucTiepSauKhiDong(t *testing.T) {
	var buf bytes.Buffer
	hook := NewAsyncHookWithWriters([]io.Writer{&buf}, 10)
	hook.Close()

	log := logrus.New()
	log.SetOutput(io.Discard)
	log.AddHook(hook)

	log.Info("Ghi sau khi hook đã đóng")
	assert.Contains(t, buf.String(), "Ghi sau khi hook đã đóng")
}
