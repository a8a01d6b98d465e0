package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"

	ledgersvc "lead_harvest/internal/api/ledger/service"
	"lead_harvest/internal/api/ledger/store"
	"lead_harvest/internal/global"
	"lead_harvest/internal/logger"
	"lead_harvest/internal/worker"
)

// initLogger khởi tạo và cấu hình logger cho toàn bộ ứng dụng
func initLogger() {
	// Khởi tạo logger với cấu hình mặc định
	// Logger sẽ tự động đọc environment variables để cấu hình
	if err := logger.Init(nil); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	// Log thông tin khởi tạo bằng logger mới
	log := logger.GetAppLogger()
	log.Info("Logger system initialized successfully")
}

// initLedgerService khởi tạo ledger service trên record store MongoDB
func initLedgerService() *ledgersvc.LedgerService {
	cfg := global.MongoDB_ServerConfig
	recordStore := store.NewMongoRecordStore(global.MongoDB_Session.Database(cfg.MongoDB_DBName_Data))
	return ledgersvc.NewLedgerService(recordStore, ledgersvc.LedgerOptions{
		AllowedSources: cfg.AllowedCreatorSources(),
		CounterNames:   cfg.CounterNames(),
		ActivitySize:   cfg.Ledger_ActivitySize,
		RetryMax:       cfg.Ledger_RetryMax,
		RetryBase:      time.Duration(cfg.Ledger_RetryBaseMs) * time.Millisecond,
	})
}

// main_thread khởi tạo và chạy Fiber server
func main_thread(ledgerService *ledgersvc.LedgerService) {
	// Khởi tạo app với cấu hình
	app := InitFiberApp(ledgerService)

	cfg := global.MongoDB_ServerConfig
	address := cfg.Address

	log := logger.GetAppLogger()
	log.WithFields(map[string]interface{}{
		"address":  address,
		"protocol": "HTTP",
	}).Info("Starting Fiber server...")

	listenConfig := fiber.ListenConfig{}
	if err := app.Listen(address, listenConfig); err != nil {
		log.Fatalf("Error in Fiber Listen: %v", err)
	}
}

// Hàm main
func main() {
	// Khởi tạo logger
	initLogger()

	// Khởi tạo các biến toàn cục
	InitGlobal()

	// Khởi tạo registry
	InitRegistry()

	// Khởi tạo ledger service dùng chung cho HTTP handlers và worker
	ledgerService := initLedgerService()

	log := logger.GetAppLogger()
	cfg := global.MongoDB_ServerConfig

	// Khởi tạo và chạy Harvest Run Worker (background worker) nếu được bật
	if cfg.Harvest_Enabled {
		interval := time.Duration(cfg.Harvest_IntervalMinutes) * time.Minute
		harvestWorker, err := worker.NewHarvestRunWorker(ledgerService, nil, cfg.Harvest_Stream, interval)
		if err != nil {
			log.WithError(err).Error("Failed to create harvest run worker, continuing without scheduler")
		} else {
			// Tạo context với cancel để có thể dừng worker khi cần
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			// Chạy worker trong goroutine riêng với recover
			go func() {
				defer func() {
					if r := recover(); r != nil {
						log.WithFields(map[string]interface{}{
							"panic": r,
						}).Error("🌾 [HARVEST_RUN] Worker goroutine panic")
					}
				}()

				log.Info("🌾 [HARVEST_RUN] Starting Harvest Run Worker...")
				harvestWorker.Start(ctx)
				log.Warn("🌾 [HARVEST_RUN] Worker đã dừng (có thể do context cancelled)")
			}()

			log.Infof("🌾 [HARVEST_RUN] Harvest Run Worker started (stream=%d, interval=%s)", cfg.Harvest_Stream, interval)
		}
	} else {
		log.Info("🌾 [HARVEST_RUN] Harvest scheduler disabled")
	}

	// Chạy Fiber server trên main thread
	main_thread(ledgerService)
}
