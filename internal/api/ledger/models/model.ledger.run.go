package models

import (
	"go.mongodb.org/mongo-driver/bson"

	"lead_harvest/internal/api/ledger/store"
)

// RunStatus định nghĩa các trạng thái của một run trong ledger.
// State machine: Absent -> Running -> {Success, Error}; không quay lại Running.
const (
	RunStatusRunning = "Running" // Đang chạy
	RunStatusSuccess = "Success" // Hoàn thành
	RunStatusError   = "Error"   // Thất bại
)

// IsTerminal kiểm tra một status có phải trạng thái kết thúc không
func IsTerminal(status string) bool {
	return status == RunStatusSuccess || status == RunStatusError
}

// RunJobRecord là bản ghi master — một bản ghi cho mỗi base run id.
// Collection: ledger_job_runs. Tạo đúng một lần khi job bắt đầu (scheduler);
// sau đó chỉ được cập nhật bởi aggregation và completion, không bao giờ xóa.
type RunJobRecord struct {
	ID string `json:"id,omitempty" bson:"-"` // Record handle trong store (không nằm trong fields)

	RunID  string `json:"runId" bson:"runId"`   // Base run id `YYMMDD-HHMMSS`
	Stream int    `json:"stream" bson:"stream"` // Số stream/partition của job

	Status      string `json:"status" bson:"status"`                             // Running, Success, Error
	StartedAt   int64  `json:"startedAt" bson:"startedAt"`                       // Thời gian bắt đầu (UnixMilli)
	CompletedAt int64  `json:"completedAt,omitempty" bson:"completedAt,omitempty"` // Thời gian kết thúc, 0 khi chưa xong

	ClientsProcessed  int64 `json:"clientsProcessed" bson:"clientsProcessed"`   // Số client đã xử lý trong run
	ClientsWithErrors int64 `json:"clientsWithErrors" bson:"clientsWithErrors"` // Số client kết thúc ở trạng thái Error

	Counters map[string]int64 `json:"counters" bson:"counters"` // Tổng các counter domain từ các child record

	Notes string `json:"notes,omitempty" bson:"notes,omitempty"` // Ghi chú append-only (timestamp + source)

	CreatedAt int64 `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// ClientRunRecord là bản ghi child — một bản ghi cho mỗi cặp (base run id, client).
// Collection: ledger_client_runs. Invariant: với một cặp (baseRunId, clientId)
// không bao giờ có quá một bản ghi ở trạng thái Running — do giao thức
// get-or-create của Ledger Service đảm bảo, không phải store.
type ClientRunRecord struct {
	ID string `json:"id,omitempty" bson:"-"` // Record handle trong store

	RunID      string `json:"runId" bson:"runId"`           // Run id đã scope `YYMMDD-HHMMSS-<clientId>`
	BaseRunID  string `json:"baseRunId" bson:"baseRunId"`   // Base run id, tách riêng để filter exact-match
	ClientID   string `json:"clientId" bson:"clientId"`     // Id của client
	ClientName string `json:"clientName,omitempty" bson:"clientName,omitempty"` // Tên hiển thị của client

	Status      string `json:"status" bson:"status"`
	StartedAt   int64  `json:"startedAt" bson:"startedAt"`
	CompletedAt int64  `json:"completedAt,omitempty" bson:"completedAt,omitempty"`

	Counters map[string]int64 `json:"counters" bson:"counters"` // Counter domain của riêng client này

	Notes string `json:"notes,omitempty" bson:"notes,omitempty"` // Tiến trình/ghi chú append-only

	CreatedAt int64 `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// JobRecordFromStore decode một store.Record thành RunJobRecord
func JobRecordFromStore(rec *store.Record) (*RunJobRecord, error) {
	var out RunJobRecord
	if err := decodeFields(rec.Fields, &out); err != nil {
		return nil, err
	}
	out.ID = rec.ID
	return &out, nil
}

// ClientRecordFromStore decode một store.Record thành ClientRunRecord
func ClientRecordFromStore(rec *store.Record) (*ClientRunRecord, error) {
	var out ClientRunRecord
	if err := decodeFields(rec.Fields, &out); err != nil {
		return nil, err
	}
	out.ID = rec.ID
	return &out, nil
}

// decodeFields chuyển bản đồ field về struct qua BSON round-trip,
// cùng cơ chế với utility.ToMap ở chiều ngược lại.
func decodeFields(fields map[string]interface{}, out interface{}) error {
	raw, err := bson.Marshal(fields)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}
