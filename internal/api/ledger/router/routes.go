// Package router đăng ký các route thuộc domain Ledger: job run, client run, activity.
package router

import (
	"github.com/gofiber/fiber/v3"

	ledgerhdl "lead_harvest/internal/api/ledger/handler"
	ledgersvc "lead_harvest/internal/api/ledger/service"
)

// Register đăng ký tất cả route ledger lên v1.
func Register(v1 fiber.Router, svc *ledgersvc.LedgerService) error {
	handler := ledgerhdl.NewLedgerHandler(svc)

	v1.Post("/ledger/job", handler.HandleCreateJob)
	v1.Post("/ledger/job/aggregate", handler.HandleAggregateJob)
	v1.Get("/ledger/jobs", handler.HandleListJobRuns)

	v1.Post("/ledger/client-run", handler.HandleGetOrCreateClientRun)

	v1.Get("/ledger/run/:runId", handler.HandleGetRunRecord)
	v1.Put("/ledger/run", handler.HandleUpdateRunRecord)
	v1.Put("/ledger/run/metrics", handler.HandleUpdateMetrics)
	v1.Put("/ledger/run/complete", handler.HandleCompleteRun)

	v1.Get("/ledger/activity", handler.HandleActivity)

	return nil
}
