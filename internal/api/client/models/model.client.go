// Package models chứa model cho domain Client (tenant sử dụng pipeline harvest).
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trạng thái hoạt động của client
const (
	ClientStatusActive = "Active" // Được scheduler đưa vào run
	ClientStatusPaused = "Paused" // Tạm dừng, bỏ qua khi chạy run
)

// Client đại diện cho một tenant của pipeline harvest.
// ClientID là định danh logic dùng làm suffix trong run id đã scope,
// nên chỉ được chứa ký tự an toàn cho id (không chứa separator phụ).
type Client struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	ClientID string `json:"clientId" bson:"clientId" validate:"required,source_name"` // Định danh logic, duy nhất
	Name     string `json:"name" bson:"name" validate:"required"`                     // Tên hiển thị
	Status   string `json:"status" bson:"status"`                                     // Active, Paused

	Stream         int   `json:"stream" bson:"stream"`                 // Stream/partition client thuộc về
	DailyTokenCap  int64 `json:"dailyTokenCap" bson:"dailyTokenCap"`   // Ngân sách token AI mỗi ngày, 0 = không giới hạn
	HarvestEnabled bool  `json:"harvestEnabled" bson:"harvestEnabled"` // Bật/tắt harvest riêng cho client

	CreatedAt int64 `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}
