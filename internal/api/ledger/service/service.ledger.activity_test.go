package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityLog_RingBufferDeLenCuNhat(t *testing.T) {
	log := NewActivityLog(3)

	for i := 1; i <= 5; i++ {
		log.Record(ActivityEntry{Action: fmt.Sprintf("action-%d", i), Outcome: "ok"})
	}

	entries := log.Entries()
	require.Len(t, entries, 3, "buffer chỉ giữ đúng sức chứa")
	assert.Equal(t, "action-3", entries[0].Action, "entry cũ nhất phải đứng đầu")
	assert.Equal(t, "action-5", entries[2].Action)
}

func TestActivityLog_ChuaDayTraDungSoEntry(t *testing.T) {
	log := NewActivityLog(10)

	log.Record(ActivityEntry{Action: "createJob", RunID: "250101-000000", Outcome: "ok"})
	log.Record(ActivityEntry{Action: "updateMetrics", RunID: "250101-000000-Acme", Outcome: "ok"})

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "createJob", entries[0].Action)
	assert.NotZero(t, entries[0].At, "timestamp phải được gán tự động")
}
