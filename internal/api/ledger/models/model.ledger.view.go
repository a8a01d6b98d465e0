package models

import (
	"lead_harvest/internal/api/ledger/store"
)

// RunRecordView hợp nhất field của bản ghi job và client run,
// dùng cho các thao tác đọc/ghi chung không phân biệt loại bản ghi
// (getRunRecord, updateRunRecord, updateMetrics, completeRun).
// Field không có trong loại bản ghi tương ứng sẽ rỗng và bị omit khi marshal.
type RunRecordView struct {
	ID string `json:"id,omitempty" bson:"-"`

	RunID      string `json:"runId" bson:"runId"`
	BaseRunID  string `json:"baseRunId,omitempty" bson:"baseRunId,omitempty"`
	ClientID   string `json:"clientId,omitempty" bson:"clientId,omitempty"`
	ClientName string `json:"clientName,omitempty" bson:"clientName,omitempty"`
	Stream     int    `json:"stream,omitempty" bson:"stream,omitempty"`

	Status      string `json:"status" bson:"status"`
	StartedAt   int64  `json:"startedAt" bson:"startedAt"`
	CompletedAt int64  `json:"completedAt,omitempty" bson:"completedAt,omitempty"`

	ClientsProcessed  int64 `json:"clientsProcessed,omitempty" bson:"clientsProcessed,omitempty"`
	ClientsWithErrors int64 `json:"clientsWithErrors,omitempty" bson:"clientsWithErrors,omitempty"`

	Counters map[string]int64 `json:"counters" bson:"counters"`
	Notes    string           `json:"notes,omitempty" bson:"notes,omitempty"`

	CreatedAt int64 `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// ViewFromStore decode một store.Record thành RunRecordView
func ViewFromStore(rec *store.Record) (*RunRecordView, error) {
	var out RunRecordView
	if err := decodeFields(rec.Fields, &out); err != nil {
		return nil, err
	}
	out.ID = rec.ID
	return &out, nil
}
