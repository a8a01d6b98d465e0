// Package clientdto chứa DTO cho domain Client.
package clientdto

// ClientCreateInput là body tạo mới một client/tenant
type ClientCreateInput struct {
	ClientID       string `json:"clientId" validate:"required,source_name"`
	Name           string `json:"name" validate:"required"`
	Status         string `json:"status,omitempty" validate:"omitempty,oneof=Active Paused"`
	Stream         int    `json:"stream" validate:"gte=0"`
	DailyTokenCap  int64  `json:"dailyTokenCap" validate:"gte=0"`
	HarvestEnabled bool   `json:"harvestEnabled"`
}

// ClientUpdateInput là body cập nhật một client/tenant.
// ClientID không có mặt: định danh logic là bất biến sau khi tạo
// vì nó đã nằm trong run id của các bản ghi ledger.
type ClientUpdateInput struct {
	Name           string `json:"name,omitempty"`
	Status         string `json:"status,omitempty" validate:"omitempty,oneof=Active Paused"`
	Stream         *int   `json:"stream,omitempty" validate:"omitempty,gte=0"`
	DailyTokenCap  *int64 `json:"dailyTokenCap,omitempty" validate:"omitempty,gte=0"`
	HarvestEnabled *bool  `json:"harvestEnabled,omitempty"`
}
