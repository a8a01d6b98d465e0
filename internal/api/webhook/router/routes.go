// Package router đăng ký các route thuộc domain Webhook: tiến trình harvest (public).
package router

import (
	"github.com/gofiber/fiber/v3"

	ledgersvc "lead_harvest/internal/api/ledger/service"
	webhookhdl "lead_harvest/internal/api/webhook/handler"
)

// Register đăng ký tất cả route webhook lên v1.
func Register(v1 fiber.Router, ledgerService *ledgersvc.LedgerService) error {
	harvestProgressHandler := webhookhdl.NewHarvestProgressHandler(ledgerService)
	v1.Post("/webhook/harvest-progress", harvestProgressHandler.HandleHarvestProgress)

	return nil
}
