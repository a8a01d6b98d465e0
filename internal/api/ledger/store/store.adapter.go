// Package store định nghĩa contract của record store bên ngoài mà ledger
// được xây lên trên: tìm theo filter, đọc theo id, tạo mới, cập nhật theo id.
//
// Store này KHÔNG có transaction, KHÔNG có unique constraint và KHÔNG có
// upsert nguyên tử. Hai lệnh Create đồng thời với cùng khóa logic đều có thể
// thành công và tạo bản ghi trùng — Ledger Service chịu trách nhiệm ngăn điều
// đó bằng giao thức find-trước-create, không phải adapter.
package store

import "context"

// Record là một bản ghi thô trong store: id opaque + bản đồ field.
type Record struct {
	ID     string                 // Id bản ghi do store cấp (opaque với caller)
	Fields map[string]interface{} // Toàn bộ field của bản ghi
}

// Filter là điều kiện lọc exact-match, AND trên tất cả các field.
// Store phải hỗ trợ AND trên ít nhất 2 field đồng thời (runId AND clientId) —
// đây là yêu cầu cứng của giao thức get-or-create.
type Filter map[string]interface{}

// RecordStore là contract với store bên ngoài.
// Mọi thao tác là network call blocking và phải tôn trọng deadline của ctx.
// Lỗi trả về đã được phân loại: common.ErrNotFound khi không có bản ghi,
// lỗi transient (DB_001) khi caller có thể retry.
type RecordStore interface {
	// FindOne trả về một bản ghi khớp filter, hoặc common.ErrNotFound.
	FindOne(ctx context.Context, table string, filter Filter) (*Record, error)

	// FindByID trả về bản ghi theo handle đã cấp, hoặc common.ErrNotFound.
	// Rẻ hơn FindOne vì bỏ qua bước tra cứu theo filter.
	FindByID(ctx context.Context, table string, id string) (*Record, error)

	// Find trả về tất cả bản ghi khớp filter (có thể rỗng).
	Find(ctx context.Context, table string, filter Filter) ([]*Record, error)

	// Create tạo bản ghi mới với các field cho trước.
	// KHÔNG đảm bảo exclusive: không được gọi khi chưa FindOne trước đó.
	Create(ctx context.Context, table string, fields map[string]interface{}) (*Record, error)

	// UpdateByID cập nhật (partial) bản ghi theo id, hoặc common.ErrNotFound.
	UpdateByID(ctx context.Context, table string, id string, fields map[string]interface{}) (*Record, error)
}
