// Package webhookdto chứa DTO cho các webhook từ hệ thống harvest bên ngoài.
package webhookdto

// HarvestProgressRequest là body webhook báo tiến trình harvest của một client run.
// Worker harvest bên ngoài gửi lại định kỳ và khi kết thúc; webhook có thể bị
// gửi lại (retry) hoặc đến sai thứ tự — counter phía ledger merge qua max()
// nên việc đó không làm sai số liệu.
type HarvestProgressRequest struct {
	RunID    string           `json:"runId" validate:"required,run_id"`
	ClientID string           `json:"clientId" validate:"required,source_name"`
	Source   string           `json:"source" validate:"required,source_name"`
	Counters map[string]int64 `json:"counters,omitempty"`
	Note     string           `json:"note,omitempty"`

	// Final đánh dấu đây là báo cáo cuối cùng; Status bắt buộc khi Final = true
	Final  bool   `json:"final,omitempty"`
	Status string `json:"status,omitempty" validate:"omitempty,oneof=Success Error"`
}
