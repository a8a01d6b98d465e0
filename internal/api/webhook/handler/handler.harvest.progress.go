// Package webhookhdl chứa handler cho webhook tiến trình harvest.
// File: handler.harvest.progress.go
package webhookhdl

import (
	"github.com/gofiber/fiber/v3"

	basehdl "lead_harvest/internal/api/base/handler"
	ledgersvc "lead_harvest/internal/api/ledger/service"
	webhookdto "lead_harvest/internal/api/webhook/dto"
	"lead_harvest/internal/common"
	"lead_harvest/internal/logger"
)

// HarvestProgressHandler nhận webhook tiến trình từ worker harvest bên ngoài
// và chuyển vào ledger. Webhook CHỈ được cập nhật bản ghi đã tồn tại —
// run chưa được scheduler tạo thì webhook trả not-found, không bao giờ tạo hộ.
type HarvestProgressHandler struct {
	ledgerService *ledgersvc.LedgerService
}

// NewHarvestProgressHandler tạo mới HarvestProgressHandler
func NewHarvestProgressHandler(svc *ledgersvc.LedgerService) *HarvestProgressHandler {
	return &HarvestProgressHandler{ledgerService: svc}
}

// HandleHarvestProgress xử lý webhook tiến trình harvest (POST /webhook/harvest-progress)
//
// Lưu ý:
//   - Endpoint này KHÔNG cần authentication middleware (worker nội bộ gọi trực tiếp)
//   - Webhook gửi lại hay đến trễ đều an toàn nhờ quy tắc max-merge của ledger
func (h *HarvestProgressHandler) HandleHarvestProgress(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		log := logger.GetAppLogger()

		var req webhookdto.HarvestProgressRequest
		if err := basehdl.ParseRequestBody(c, &req); err != nil {
			log.WithError(err).Warn("🔔 [HARVEST WEBHOOK] Không thể parse request body")
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		if req.Final && req.Status == "" {
			basehdl.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput,
				"status bắt buộc khi final = true", common.StatusBadRequest, nil))
			return nil
		}

		log.WithFields(map[string]interface{}{
			"run_id":    req.RunID,
			"client_id": req.ClientID,
			"final":     req.Final,
		}).Info("🔔 [HARVEST WEBHOOK] Nhận báo cáo tiến trình harvest")

		ctx := c.Context()

		// Cập nhật counter trước (nếu có), sau đó mới chốt trạng thái.
		// Khi final thì note đi cùng CompleteRun để không bị append hai lần.
		metricNote := req.Note
		if req.Final {
			metricNote = ""
		}
		if len(req.Counters) > 0 {
			if _, err := h.ledgerService.UpdateMetrics(ctx,
				req.RunID, req.ClientID, req.Counters, metricNote, req.Source); err != nil {
				basehdl.HandleResponse(c, nil, err)
				return nil
			}
		}

		if req.Final {
			view, err := h.ledgerService.CompleteRun(ctx,
				req.RunID, req.ClientID, req.Status, req.Note, req.Source)
			basehdl.HandleResponse(c, view, err)
			return nil
		}

		view, err := h.ledgerService.GetRunRecord(ctx, req.RunID, req.ClientID, req.Source)
		basehdl.HandleResponse(c, view, err)
		return nil
	})
}
