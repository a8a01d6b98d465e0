// Package ledgerdto chứa các DTO cho domain Ledger (bản ghi run).
package ledgerdto

// CreateJobInput là body tạo bản ghi job run master
type CreateJobInput struct {
	RunID  string `json:"runId" validate:"required,base_run_id"`    // Base run id `YYMMDD-HHMMSS`
	Stream int    `json:"stream" validate:"gte=0"`                  // Stream/partition của job
	Source string `json:"source" validate:"required,source_name"`   // Subsystem gọi, phải nằm trong allow-list
}

// GetOrCreateClientRunInput là body cho get-or-create bản ghi client run
type GetOrCreateClientRunInput struct {
	RunID      string `json:"runId" validate:"required,run_id"`       // Base id hoặc id đã scope theo đúng client
	ClientID   string `json:"clientId" validate:"required,source_name"`
	ClientName string `json:"clientName,omitempty"`
	Source     string `json:"source" validate:"required,source_name"`
}

// UpdateMetricsInput là body cập nhật counter cho một bản ghi run
type UpdateMetricsInput struct {
	RunID    string           `json:"runId" validate:"required,run_id"`
	ClientID string           `json:"clientId,omitempty" validate:"omitempty,source_name"`
	Counters map[string]int64 `json:"counters" validate:"required,min=1"`
	Note     string           `json:"note,omitempty"`
	Source   string           `json:"source" validate:"required,source_name"`
}

// UpdateRunRecordInput là body cập nhật field tự do trên một bản ghi run
type UpdateRunRecordInput struct {
	RunID    string                 `json:"runId" validate:"required,run_id"`
	ClientID string                 `json:"clientId,omitempty" validate:"omitempty,source_name"`
	Fields   map[string]interface{} `json:"fields" validate:"required,min=1"`
	Source   string                 `json:"source" validate:"required,source_name"`
}

// CompleteRunInput là body chuyển một bản ghi run sang trạng thái kết thúc
type CompleteRunInput struct {
	RunID    string `json:"runId" validate:"required,run_id"`
	ClientID string `json:"clientId,omitempty" validate:"omitempty,source_name"`
	Status   string `json:"status" validate:"required,oneof=Success Error"`
	Note     string `json:"note,omitempty"`
	Source   string `json:"source" validate:"required,source_name"`
}

// AggregateJobInput là body yêu cầu aggregate số liệu job từ các client run
type AggregateJobInput struct {
	RunID  string `json:"runId" validate:"required,base_run_id"`
	Source string `json:"source" validate:"required,source_name"`
}
