package service

import (
	"context"
	"errors"
	"time"

	"lead_harvest/internal/common"
)

// Strategy là hướng xử lý khi một thao tác ledger gặp lỗi
type Strategy int

const (
	StrategyAbort              Strategy = iota // Dừng và trả lỗi cho caller
	StrategyRetry                              // Lỗi transient, retry với backoff
	StrategyCreateIfAuthorized                 // Not-found trên đường get-or-create: được tạo nếu source có quyền
	StrategyLogAndContinue                     // Lỗi không chặn tiến trình (cập nhật metric phụ)
)

// Classify phân loại lỗi store thành chiến lược xử lý.
// Lưu ý: not-found chỉ map sang CreateIfAuthorized trên đường get-or-create;
// trên đường update thì caller phải giữ nguyên Abort — update không bao giờ tạo.
func Classify(err error, onCreatePath bool) Strategy {
	if err == nil {
		return StrategyLogAndContinue
	}
	if common.IsTransient(err) {
		return StrategyRetry
	}
	if errors.Is(err, common.ErrNotFound) && onCreatePath {
		return StrategyCreateIfAuthorized
	}
	return StrategyAbort
}

// RetryPolicy thực hiện retry có giới hạn với exponential backoff
// cho các lỗi store transient (DB_001).
type RetryPolicy struct {
	Max  int           // Số lần retry tối đa (không tính lần đầu)
	Base time.Duration // Khoảng chờ cơ sở, nhân đôi sau mỗi lần
}

// Do chạy fn, retry khi gặp lỗi transient. Các lỗi khác trả về ngay.
// Context bị hủy sẽ cắt ngang chuỗi retry.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	delay := p.Base
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !common.IsTransient(err) {
			return err
		}
		if attempt >= p.Max {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}
