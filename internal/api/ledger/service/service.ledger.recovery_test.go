package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead_harvest/internal/common"
)

func TestRetryPolicy_DoRetryLoiTransient(t *testing.T) {
	policy := RetryPolicy{Max: 3, Base: time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return common.ErrStoreTransient
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_DoKhongRetryLoiPermanent(t *testing.T) {
	policy := RetryPolicy{Max: 3, Base: time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return common.ErrNotFound
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
	assert.Equal(t, 1, calls, "lỗi permanent phải trả về ngay, không retry")
}

func TestRetryPolicy_DoHetLuotVanLoi(t *testing.T) {
	policy := RetryPolicy{Max: 2, Base: time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return common.ErrStoreTransient
	})
	require.Error(t, err)
	assert.True(t, common.IsTransient(err))
	assert.Equal(t, 3, calls, "1 lần đầu + 2 lần retry")
}

func TestRetryPolicy_DoDungKhiContextHuy(t *testing.T) {
	policy := RetryPolicy{Max: 5, Base: 10 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := policy.Do(ctx, func() error {
		calls++
		return common.ErrStoreTransient
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, calls)
}

func TestClassify_PhanLoaiChienLuoc(t *testing.T) {
	assert.Equal(t, StrategyRetry, Classify(common.ErrStoreTransient, false))
	assert.Equal(t, StrategyCreateIfAuthorized, Classify(common.ErrNotFound, true))
	assert.Equal(t, StrategyAbort, Classify(common.ErrNotFound, false),
		"not-found trên đường update không bao giờ dẫn tới create")
	assert.Equal(t, StrategyAbort, Classify(common.ErrRunUnauthorized, true))
	assert.Equal(t, StrategyLogAndContinue, Classify(nil, false))
}
