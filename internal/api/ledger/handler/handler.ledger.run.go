// Package ledgerhdl chứa handler HTTP cho domain Ledger.
// File: handler.ledger.run.go
package ledgerhdl

import (
	"github.com/gofiber/fiber/v3"

	basehdl "lead_harvest/internal/api/base/handler"
	ledgerdto "lead_harvest/internal/api/ledger/dto"
	ledgersvc "lead_harvest/internal/api/ledger/service"
)

// LedgerHandler xử lý các request HTTP thao tác lên bản ghi run.
// Mọi bất biến (exactly-once, max-merge, không create-on-update) do
// LedgerService đảm bảo; handler chỉ parse/validate và trả envelope.
type LedgerHandler struct {
	ledgerService *ledgersvc.LedgerService
}

// NewLedgerHandler tạo mới LedgerHandler với service được cung cấp
func NewLedgerHandler(svc *ledgersvc.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: svc}
}

// HandleCreateJob tạo bản ghi job run master (POST /ledger/job)
func (h *LedgerHandler) HandleCreateJob(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var input ledgerdto.CreateJobInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		job, err := h.ledgerService.CreateJob(c.Context(), input.RunID, input.Stream, input.Source)
		basehdl.HandleResponse(c, job, err)
		return nil
	})
}

// HandleGetOrCreateClientRun lấy hoặc tạo bản ghi client run (POST /ledger/client-run)
func (h *LedgerHandler) HandleGetOrCreateClientRun(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var input ledgerdto.GetOrCreateClientRunInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		run, err := h.ledgerService.GetOrCreateClientRun(c.Context(),
			input.RunID, input.ClientID, input.ClientName, input.Source)
		basehdl.HandleResponse(c, run, err)
		return nil
	})
}

// HandleGetRunRecord đọc một bản ghi run theo id (GET /ledger/run/:runId?clientId=)
func (h *LedgerHandler) HandleGetRunRecord(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		runID := c.Params("runId")
		clientID := c.Query("clientId", "")
		source := c.Query("source", "api")

		view, err := h.ledgerService.GetRunRecord(c.Context(), runID, clientID, source)
		basehdl.HandleResponse(c, view, err)
		return nil
	})
}

// HandleListJobRuns liệt kê các bản ghi job run (GET /ledger/jobs)
func (h *LedgerHandler) HandleListJobRuns(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		jobs, err := h.ledgerService.ListJobRuns(c.Context())
		basehdl.HandleResponse(c, jobs, err)
		return nil
	})
}

// HandleUpdateMetrics merge counter vào bản ghi run (PUT /ledger/run/metrics)
func (h *LedgerHandler) HandleUpdateMetrics(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var input ledgerdto.UpdateMetricsInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		view, err := h.ledgerService.UpdateMetrics(c.Context(),
			input.RunID, input.ClientID, input.Counters, input.Note, input.Source)
		basehdl.HandleResponse(c, view, err)
		return nil
	})
}

// HandleUpdateRunRecord cập nhật field tự do trên bản ghi run (PUT /ledger/run)
func (h *LedgerHandler) HandleUpdateRunRecord(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var input ledgerdto.UpdateRunRecordInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		view, err := h.ledgerService.UpdateRunRecord(c.Context(),
			input.RunID, input.ClientID, input.Fields, input.Source)
		basehdl.HandleResponse(c, view, err)
		return nil
	})
}

// HandleCompleteRun chuyển bản ghi run sang trạng thái kết thúc (PUT /ledger/run/complete)
func (h *LedgerHandler) HandleCompleteRun(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var input ledgerdto.CompleteRunInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		view, err := h.ledgerService.CompleteRun(c.Context(),
			input.RunID, input.ClientID, input.Status, input.Note, input.Source)
		basehdl.HandleResponse(c, view, err)
		return nil
	})
}

// HandleAggregateJob gom số liệu từ client runs vào job master (POST /ledger/job/aggregate)
func (h *LedgerHandler) HandleAggregateJob(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var input ledgerdto.AggregateJobInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		job, err := h.ledgerService.AggregateJob(c.Context(), input.RunID, input.Source)
		basehdl.HandleResponse(c, job, err)
		return nil
	})
}

// HandleActivity trả về nhật ký hoạt động gần nhất của ledger (GET /ledger/activity)
func (h *LedgerHandler) HandleActivity(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		basehdl.HandleResponse(c, h.ledgerService.Activity(), nil)
		return nil
	})
}
