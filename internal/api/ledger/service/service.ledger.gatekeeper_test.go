package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead_harvest/internal/common"
)

func TestGatekeeper_AuthorizeTheoAllowList(t *testing.T) {
	gate := NewGatekeeper([]string{"scheduler", " tenant-worker ", ""})

	assert.NoError(t, gate.Authorize("scheduler"))
	assert.NoError(t, gate.Authorize("tenant-worker"), "source phải được trim khoảng trắng khi nạp")

	err := gate.Authorize("random-caller")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrRunUnauthorized))

	err = gate.Authorize("")
	require.Error(t, err, "source rỗng không bao giờ được phép")
}

func TestGatekeeper_SourcesTraVeDanhSachSort(t *testing.T) {
	gate := NewGatekeeper([]string{"tenant-worker", "scheduler"})
	assert.Equal(t, []string{"scheduler", "tenant-worker"}, gate.Sources())
}
