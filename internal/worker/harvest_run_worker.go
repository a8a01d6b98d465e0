package worker

import (
	"context"
	"time"

	clientmodels "lead_harvest/internal/api/client/models"
	clientsvc "lead_harvest/internal/api/client/service"
	ledgermodels "lead_harvest/internal/api/ledger/models"
	"lead_harvest/internal/api/ledger/runid"
	ledgersvc "lead_harvest/internal/api/ledger/service"
	"lead_harvest/internal/logger"
)

// Tên source của các subsystem ghi vào ledger
const (
	SourceScheduler    = "scheduler"     // Worker lập lịch, chủ bản ghi job master
	SourceTenantWorker = "tenant-worker" // Worker xử lý từng client
)

// HarvestResult là kết quả harvest của một client trong một run
type HarvestResult struct {
	Counters map[string]int64 // Counter domain thu được
	Note     string           // Ghi chú tiến trình (tùy chọn)
}

// HarvestProvider trừu tượng hóa nguồn thu thập post (LinkedIn scraper, API bên ngoài).
// Triển khai thật gọi hệ thống ngoài; StubHarvestProvider dùng cho local/test.
type HarvestProvider interface {
	HarvestClient(ctx context.Context, client clientmodels.Client, runID string) (*HarvestResult, error)
}

// StubHarvestProvider trả về kết quả rỗng, dùng khi chưa nối provider thật
type StubHarvestProvider struct{}

// HarvestClient trả về bộ counter rỗng — run vẫn đi hết vòng đời ledger
func (p *StubHarvestProvider) HarvestClient(ctx context.Context, client clientmodels.Client, runID string) (*HarvestResult, error) {
	return &HarvestResult{Counters: map[string]int64{}}, nil
}

// HarvestRunWorker chạy định kỳ một batch run hoàn chỉnh:
// tạo bản ghi job master (exactly-once), chạy harvest từng client Active,
// ghi số liệu vào bản ghi client run, rồi aggregate về master và chốt trạng thái.
type HarvestRunWorker struct {
	ledgerService *ledgersvc.LedgerService
	clientService *clientsvc.ClientService
	provider      HarvestProvider
	stream        int           // Stream/partition worker này phụ trách
	interval      time.Duration // Khoảng thời gian giữa các run
}

// NewHarvestRunWorker tạo mới HarvestRunWorker.
// Tham số:
//   - interval: Khoảng thời gian giữa các run (tối thiểu 1 phút)
//   - stream: Stream/partition worker phụ trách
func NewHarvestRunWorker(ledgerService *ledgersvc.LedgerService, provider HarvestProvider, stream int, interval time.Duration) (*HarvestRunWorker, error) {
	clientService, err := clientsvc.NewClientService()
	if err != nil {
		return nil, err
	}
	if interval < time.Minute {
		interval = time.Hour
	}
	if provider == nil {
		provider = &StubHarvestProvider{}
	}
	return &HarvestRunWorker{
		ledgerService: ledgerService,
		clientService: clientService,
		provider:      provider,
		stream:        stream,
		interval:      interval,
	}, nil
}

// Start chạy worker trong vòng lặp: mỗi interval thực hiện một run đầy đủ.
func (w *HarvestRunWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.WithFields(map[string]interface{}{
		"interval": w.interval.String(),
		"stream":   w.stream,
	}).Info("🌾 [HARVEST_RUN] Starting Harvest Run Worker...")

	for {
		select {
		case <-ctx.Done():
			log.Info("🌾 [HARVEST_RUN] Harvest Run Worker stopped")
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.WithFields(map[string]interface{}{
							"panic": r,
						}).Error("🌾 [HARVEST_RUN] Panic trong run, sẽ tiếp tục ở lần chạy tiếp theo")
					}
				}()
				w.runOnce(ctx)
			}()
		}
	}
}

// runOnce thực hiện một run hoàn chỉnh cho stream của worker
func (w *HarvestRunWorker) runOnce(ctx context.Context) {
	log := logger.GetAppLogger()

	baseRunID := runid.New()
	if _, err := w.ledgerService.CreateJob(ctx, baseRunID, w.stream, SourceScheduler); err != nil {
		// LED_002 nghĩa là một instance khác đã nhận run này trong cùng giây — nhường
		log.WithError(err).WithFields(map[string]interface{}{
			"run_id": baseRunID,
		}).Warn("🌾 [HARVEST_RUN] Không tạo được bản ghi job, bỏ qua run này")
		return
	}

	clients, err := w.clientService.FindActiveByStream(ctx, w.stream)
	if err != nil {
		log.WithError(err).Error("🌾 [HARVEST_RUN] Lỗi lấy danh sách client active")
		w.finishJob(ctx, baseRunID, ledgermodels.RunStatusError, "Không lấy được danh sách client")
		return
	}

	jobFailed := false
	for _, client := range clients {
		if err := w.harvestOne(ctx, baseRunID, client); err != nil {
			jobFailed = true
		}
	}

	if _, err := w.ledgerService.AggregateJob(ctx, baseRunID, SourceScheduler); err != nil {
		log.WithError(err).WithFields(map[string]interface{}{
			"run_id": baseRunID,
		}).Error("🌾 [HARVEST_RUN] Lỗi aggregate số liệu job")
		jobFailed = true
	}

	status := ledgermodels.RunStatusSuccess
	note := "Run hoàn tất"
	if jobFailed {
		status = ledgermodels.RunStatusError
		note = "Run hoàn tất với lỗi ở một hoặc nhiều client"
	}
	w.finishJob(ctx, baseRunID, status, note)

	log.WithFields(map[string]interface{}{
		"run_id":  baseRunID,
		"clients": len(clients),
		"status":  status,
	}).Info("🌾 [HARVEST_RUN] Run kết thúc")
}

// harvestOne xử lý một client trong run: tạo bản ghi, harvest, ghi số liệu, chốt trạng thái
func (w *HarvestRunWorker) harvestOne(ctx context.Context, baseRunID string, client clientmodels.Client) error {
	log := logger.GetAppLogger()

	run, err := w.ledgerService.GetOrCreateClientRun(ctx, baseRunID, client.ClientID, client.Name, SourceTenantWorker)
	if err != nil {
		log.WithError(err).WithFields(map[string]interface{}{
			"run_id":    baseRunID,
			"client_id": client.ClientID,
		}).Error("🌾 [HARVEST_RUN] Không tạo được bản ghi client run")
		return err
	}

	result, err := w.provider.HarvestClient(ctx, client, run.RunID)
	if err != nil {
		log.WithError(err).WithFields(map[string]interface{}{
			"run_id": run.RunID,
		}).Warn("🌾 [HARVEST_RUN] Harvest thất bại")
		if _, cerr := w.ledgerService.CompleteRun(ctx, run.RunID, client.ClientID,
			ledgermodels.RunStatusError, "Harvest thất bại: "+err.Error(), SourceTenantWorker); cerr != nil {
			log.WithError(cerr).Warn("🌾 [HARVEST_RUN] Không chốt được trạng thái Error cho client run")
		}
		return err
	}

	if len(result.Counters) > 0 {
		if _, err := w.ledgerService.UpdateMetrics(ctx, run.RunID, client.ClientID,
			result.Counters, result.Note, SourceTenantWorker); err != nil {
			// Lỗi transient đã được retry hết trong service — số liệu bù được
			// qua webhook sau nên không chặn việc chốt run. Lỗi vĩnh viễn
			// (bản ghi biến mất, counter sai cấu hình) thì dừng client này.
			if ledgersvc.Classify(err, false) != ledgersvc.StrategyRetry {
				log.WithError(err).WithFields(map[string]interface{}{
					"run_id": run.RunID,
				}).Error("🌾 [HARVEST_RUN] Ghi số liệu bị từ chối, dừng client run này")
				return err
			}
			log.WithError(err).WithFields(map[string]interface{}{
				"run_id": run.RunID,
			}).Warn("🌾 [HARVEST_RUN] Không ghi được số liệu, tiếp tục chốt run")
		}
	}

	if _, err := w.ledgerService.CompleteRun(ctx, run.RunID, client.ClientID,
		ledgermodels.RunStatusSuccess, "", SourceTenantWorker); err != nil {
		log.WithError(err).WithFields(map[string]interface{}{
			"run_id": run.RunID,
		}).Error("🌾 [HARVEST_RUN] Không chốt được trạng thái client run")
		return err
	}
	return nil
}

// finishJob chốt trạng thái bản ghi job master, nuốt lỗi vì run đã xong
func (w *HarvestRunWorker) finishJob(ctx context.Context, baseRunID string, status string, note string) {
	if _, err := w.ledgerService.CompleteRun(ctx, baseRunID, "", status, note, SourceScheduler); err != nil {
		logger.GetAppLogger().WithError(err).WithFields(map[string]interface{}{
			"run_id": baseRunID,
		}).Error("🌾 [HARVEST_RUN] Không chốt được trạng thái job run")
	}
}
