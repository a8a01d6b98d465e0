package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"lead_harvest/internal/api/ledger/models"
	"lead_harvest/internal/api/ledger/runid"
	"lead_harvest/internal/api/ledger/store"
	"lead_harvest/internal/common"
	"lead_harvest/internal/global"
	"lead_harvest/internal/logger"
	"lead_harvest/internal/utility"
)

// LedgerOptions là tham số khởi tạo LedgerService, lấy từ Configuration
type LedgerOptions struct {
	AllowedSources []string      // Allow-list các source được tạo bản ghi
	CounterNames   []string      // Tập counter domain được chấp nhận
	ActivitySize   int           // Sức chứa của nhật ký hoạt động
	RetryMax       int           // Số lần retry tối đa cho lỗi store transient
	RetryBase      time.Duration // Khoảng chờ cơ sở giữa các lần retry
}

// LedgerService là service trung tâm của ledger: mọi thao tác đọc/ghi bản ghi
// run đều đi qua đây. Service tự đảm bảo các bất biến mà record store phía sau
// không có transaction để đảm bảo: mỗi cặp (run, client) tối đa một bản ghi,
// counter chỉ tăng (merge qua max), notes chỉ append, và update không bao giờ
// tạo bản ghi mới.
type LedgerService struct {
	store        store.RecordStore
	gate         *Gatekeeper
	cache        *RecordHandleCache
	activity     *ActivityLog
	retry        RetryPolicy
	counterNames []string
	counters     map[string]struct{}
	log          *logrus.Logger

	nowFunc func() time.Time // tách riêng để test cố định thời gian
}

// NewLedgerService khởi tạo service với record store và cấu hình cho trước
func NewLedgerService(st store.RecordStore, opts LedgerOptions) *LedgerService {
	counters := make(map[string]struct{}, len(opts.CounterNames))
	for _, name := range opts.CounterNames {
		counters[name] = struct{}{}
	}
	return &LedgerService{
		store:        st,
		gate:         NewGatekeeper(opts.AllowedSources),
		cache:        NewRecordHandleCache(),
		activity:     NewActivityLog(opts.ActivitySize),
		retry:        RetryPolicy{Max: opts.RetryMax, Base: opts.RetryBase},
		counterNames: opts.CounterNames,
		counters:     counters,
		log:          logger.GetLogger("ledger"),
		nowFunc:      time.Now,
	}
}

// CreateJob tạo bản ghi job master cho một base run id — đúng một lần.
// Nếu bản ghi đã tồn tại trả về LED_002; source phải nằm trong allow-list.
func (s *LedgerService) CreateJob(ctx context.Context, baseRunID string, stream int, source string) (result *models.RunJobRecord, err error) {
	defer func() { s.track("createJob", baseRunID, "", source, err) }()

	if err = s.gate.Authorize(source); err != nil {
		return nil, err
	}
	p, ok := runid.Parse(baseRunID)
	if !ok || p.ClientID != "" {
		return nil, common.NewError(common.ErrCodeLedgerIdentifier,
			"Base run id không đúng định dạng", common.StatusBadRequest,
			map[string]interface{}{"runId": baseRunID})
	}

	table := global.MongoDB_ColNames.JobRuns
	filter := store.Filter{"runId": baseRunID}

	// Find-before-create: store không đảm bảo create exclusive
	existing, err := s.findOne(ctx, table, filter)
	if err == nil {
		s.cache.Put(baseRunID, "", existing.ID)
		return nil, common.NewError(common.ErrCodeLedgerDuplicate,
			"Bản ghi job run đã tồn tại", common.StatusConflict,
			map[string]interface{}{"runId": baseRunID, "recordId": existing.ID})
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	fields := map[string]interface{}{
		"runId":             baseRunID,
		"stream":            stream,
		"status":            models.RunStatusRunning,
		"startedAt":         now,
		"clientsProcessed":  int64(0),
		"clientsWithErrors": int64(0),
		"counters":          s.zeroCounters(),
		"notes":             appendNote("", "Job bắt đầu", source, now),
	}
	rec, err := s.createWithRecheck(ctx, table, filter, fields)
	if err != nil {
		return nil, err
	}
	s.cache.Put(baseRunID, "", rec.ID)

	s.log.WithFields(logrus.Fields{
		"run_id": baseRunID,
		"stream": stream,
		"source": source,
	}).Info("Đã tạo bản ghi job run")

	return models.JobRecordFromStore(rec)
}

// GetOrCreateClientRun trả về bản ghi client run cho cặp (run, client),
// tạo mới nếu chưa có. Idempotent: gọi lại với cùng cặp luôn trả về
// đúng một bản ghi. Quyền tạo chỉ được kiểm tra khi thật sự phải tạo.
func (s *LedgerService) GetOrCreateClientRun(ctx context.Context, runID string, clientID string, clientName string, source string) (result *models.ClientRunRecord, err error) {
	defer func() { s.track("getOrCreateClientRun", runID, clientID, source, err) }()

	if clientID == "" {
		return nil, common.ErrRequiredField
	}
	scoped, err := runid.Normalize(runID, clientID)
	if err != nil {
		return nil, err
	}
	base, _ := runid.BaseOf(scoped)

	table := global.MongoDB_ColNames.ClientRuns
	// Filter cả runId lẫn clientId để một bản ghi sai scope không bao giờ khớp
	filter := store.Filter{"runId": scoped, "clientId": clientID}

	existing, err := s.getRecord(ctx, table, scoped, clientID, filter)
	if err == nil {
		return models.ClientRecordFromStore(existing)
	}

	// Chỉ not-found trên đường get-or-create mới được rẽ sang nhánh tạo,
	// và chỉ khi source có quyền; mọi lỗi khác trả thẳng cho caller.
	if Classify(err, true) != StrategyCreateIfAuthorized {
		return nil, err
	}
	if err = s.gate.Authorize(source); err != nil {
		return nil, err
	}

	now := s.now()
	fields := map[string]interface{}{
		"runId":      scoped,
		"baseRunId":  base,
		"clientId":   clientID,
		"clientName": clientName,
		"status":     models.RunStatusRunning,
		"startedAt":  now,
		"counters":   s.zeroCounters(),
		"notes":      appendNote("", "Client run bắt đầu", source, now),
	}
	rec, err := s.createWithRecheck(ctx, table, filter, fields)
	if err != nil {
		return nil, err
	}
	s.cache.Put(scoped, clientID, rec.ID)

	s.log.WithFields(logrus.Fields{
		"run_id":    scoped,
		"client_id": clientID,
		"source":    source,
	}).Info("Đã tạo bản ghi client run")

	return models.ClientRecordFromStore(rec)
}

// GetRunRecord trả về bản ghi run theo id: base id trỏ tới bản ghi job,
// id đã scope (hoặc clientID truyền kèm) trỏ tới bản ghi client run.
// Đọc thuần túy, mọi source đều được phép gọi.
func (s *LedgerService) GetRunRecord(ctx context.Context, runID string, clientID string, source string) (result *models.RunRecordView, err error) {
	defer func() { s.track("getRunRecord", runID, clientID, source, err) }()

	table, scoped, clientID, filter, err := s.resolveTarget(runID, clientID)
	if err != nil {
		return nil, err
	}
	rec, err := s.findOne(ctx, table, filter)
	if err != nil {
		return nil, err
	}
	s.cache.Put(scoped, clientID, rec.ID)
	return models.ViewFromStore(rec)
}

// Các field không bao giờ được sửa qua UpdateRunRecord
var guardedFields = map[string]string{
	"runId":       "định danh bản ghi là bất biến",
	"baseRunId":   "định danh bản ghi là bất biến",
	"clientId":    "định danh bản ghi là bất biến",
	"createdAt":   "timestamp hệ thống do store quản lý",
	"updatedAt":   "timestamp hệ thống do store quản lý",
	"counters":    "counter phải đi qua UpdateMetrics để merge max()",
	"status":      "trạng thái phải đi qua CompleteRun",
	"completedAt": "trạng thái phải đi qua CompleteRun",
	"startedAt":   "timestamp bắt đầu là bất biến",
}

// UpdateRunRecord cập nhật field tự do trên một bản ghi ĐÃ tồn tại.
// Không bao giờ tạo bản ghi mới: bản ghi không tồn tại trả về not-found.
// Field "notes" được append kèm timestamp và source thay vì ghi đè.
func (s *LedgerService) UpdateRunRecord(ctx context.Context, runID string, clientID string, fields map[string]interface{}, source string) (result *models.RunRecordView, err error) {
	defer func() { s.track("updateRunRecord", runID, clientID, source, err) }()

	if len(fields) == 0 {
		return nil, common.ErrRequiredField
	}
	for name := range fields {
		if reason, guarded := guardedFields[name]; guarded {
			return nil, common.NewError(common.ErrCodeValidationInput,
				"Field không được phép cập nhật trực tiếp: "+name, common.StatusBadRequest,
				map[string]interface{}{"field": name, "reason": reason})
		}
	}

	table, scoped, clientID, filter, err := s.resolveTarget(runID, clientID)
	if err != nil {
		return nil, err
	}
	rec, err := s.getRecord(ctx, table, scoped, clientID, filter)
	if err != nil {
		return nil, err
	}

	update := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		update[k] = v
	}
	if note, ok := fields["notes"].(string); ok {
		update["notes"] = appendNote(notesFrom(rec.Fields), note, source, s.now())
	}

	updated, err := s.updateRecord(ctx, table, rec, scoped, clientID, filter, update)
	if err != nil {
		return nil, err
	}
	return models.ViewFromStore(updated)
}

// UpdateMetrics merge bộ counter mới vào bản ghi theo quy tắc max():
// giá trị đã ghi không bao giờ giảm, nên webhook gửi lại hay gửi trễ
// không làm sai số liệu. Note (nếu có) được append kèm timestamp.
func (s *LedgerService) UpdateMetrics(ctx context.Context, runID string, clientID string, counters map[string]int64, note string, source string) (result *models.RunRecordView, err error) {
	defer func() { s.track("updateMetrics", runID, clientID, source, err) }()

	if err = s.validateCounters(counters); err != nil {
		return nil, err
	}
	table, scoped, clientID, filter, err := s.resolveTarget(runID, clientID)
	if err != nil {
		return nil, err
	}
	rec, err := s.getRecord(ctx, table, scoped, clientID, filter)
	if err != nil {
		return nil, err
	}

	merged := mergeCounters(countersFrom(rec.Fields), counters)
	update := map[string]interface{}{"counters": merged}
	if note != "" {
		update["notes"] = appendNote(notesFrom(rec.Fields), note, source, s.now())
	}

	updated, err := s.updateRecord(ctx, table, rec, scoped, clientID, filter, update)
	if err != nil {
		return nil, err
	}
	return models.ViewFromStore(updated)
}

// CompleteRun chuyển bản ghi sang trạng thái kết thúc (Success hoặc Error).
// Gọi lại với cùng trạng thái không bị từ chối — end time được ghi lại và
// note mới được append; đổi sang trạng thái kết thúc khác trả về LED_004,
// state machine không cho phép quay lui.
func (s *LedgerService) CompleteRun(ctx context.Context, runID string, clientID string, status string, note string, source string) (result *models.RunRecordView, err error) {
	defer func() { s.track("completeRun", runID, clientID, source, err) }()

	if !models.IsTerminal(status) {
		return nil, common.NewError(common.ErrCodeValidationInput,
			"Trạng thái kết thúc phải là Success hoặc Error", common.StatusBadRequest,
			map[string]interface{}{"status": status})
	}
	table, scoped, clientID, filter, err := s.resolveTarget(runID, clientID)
	if err != nil {
		return nil, err
	}
	rec, err := s.getRecord(ctx, table, scoped, clientID, filter)
	if err != nil {
		return nil, err
	}

	// Retry hoàn tất với CÙNG trạng thái được chấp nhận: ghi lại end time và
	// append note mới (caller best-effort hay gửi lại). Đổi sang trạng thái
	// kết thúc khác mới là vi phạm state machine — run không quay lui.
	if current := statusFrom(rec.Fields); models.IsTerminal(current) && current != status {
		return nil, common.NewError(common.ErrCodeLedgerConsistency,
			"Bản ghi run đã kết thúc với trạng thái khác", common.StatusConflict,
			map[string]interface{}{"runId": scoped, "current": current, "requested": status})
	}

	now := s.now()
	update := map[string]interface{}{
		"status":      status,
		"completedAt": now,
	}
	if note != "" {
		update["notes"] = appendNote(notesFrom(rec.Fields), note, source, now)
	}

	updated, err := s.updateRecord(ctx, table, rec, scoped, clientID, filter, update)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"run_id":    scoped,
		"client_id": clientID,
		"status":    status,
		"source":    source,
	}).Info("Bản ghi run đã kết thúc")

	return models.ViewFromStore(updated)
}

// AggregateJob gom số liệu từ mọi bản ghi client run của một base run id
// vào bản ghi job master: tổng từng counter, số client đã xử lý và số client
// lỗi. Các giá trị trên master cũng merge qua max() nên chạy lại aggregation
// là idempotent. Bản ghi master không tồn tại trả về not-found, không tạo mới.
func (s *LedgerService) AggregateJob(ctx context.Context, baseRunID string, source string) (result *models.RunJobRecord, err error) {
	defer func() { s.track("aggregateJob", baseRunID, "", source, err) }()

	p, ok := runid.Parse(baseRunID)
	if !ok || p.ClientID != "" {
		return nil, common.NewError(common.ErrCodeLedgerIdentifier,
			"Base run id không đúng định dạng", common.StatusBadRequest,
			map[string]interface{}{"runId": baseRunID})
	}

	children, err := s.findAll(ctx, global.MongoDB_ColNames.ClientRuns, store.Filter{"baseRunId": baseRunID})
	if err != nil {
		return nil, err
	}

	sums := s.zeroCounters()
	var processed, withErrors int64
	for _, child := range children {
		processed++
		if statusFrom(child.Fields) == models.RunStatusError {
			withErrors++
		}
		for name, v := range countersFrom(child.Fields) {
			sums[name] += v
		}
	}

	table := global.MongoDB_ColNames.JobRuns
	filter := store.Filter{"runId": baseRunID}
	rec, err := s.getRecord(ctx, table, baseRunID, "", filter)
	if err != nil {
		return nil, err
	}

	curProcessed, _ := utility.ToInt64(rec.Fields["clientsProcessed"])
	curErrors, _ := utility.ToInt64(rec.Fields["clientsWithErrors"])
	update := map[string]interface{}{
		"counters":          mergeCounters(countersFrom(rec.Fields), sums),
		"clientsProcessed":  maxInt64(curProcessed, processed),
		"clientsWithErrors": maxInt64(curErrors, withErrors),
	}
	updated, err := s.updateRecord(ctx, table, rec, baseRunID, "", filter, update)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"run_id":        baseRunID,
		"clients":       processed,
		"clients_error": withErrors,
		"source":        source,
	}).Info("Đã aggregate số liệu job run")

	return models.JobRecordFromStore(updated)
}

// ListJobRuns trả về toàn bộ bản ghi job run (phục vụ API liệt kê)
func (s *LedgerService) ListJobRuns(ctx context.Context) ([]*models.RunJobRecord, error) {
	records, err := s.findAll(ctx, global.MongoDB_ColNames.JobRuns, store.Filter{})
	if err != nil {
		return nil, err
	}
	out := make([]*models.RunJobRecord, 0, len(records))
	for _, rec := range records {
		job, err := models.JobRecordFromStore(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, nil
}

// Activity trả về nhật ký hoạt động gần nhất (cũ -> mới)
func (s *LedgerService) Activity() []ActivityEntry {
	return s.activity.Entries()
}

// ----- Các helper nội bộ -----

func (s *LedgerService) now() int64 {
	return s.nowFunc().UnixMilli()
}

// resolveTarget quy một (runID, clientID) về collection, run id chuẩn hóa
// và filter tra cứu. Base id không kèm clientID trỏ tới bản ghi job;
// mọi trường hợp còn lại trỏ tới bản ghi client run.
func (s *LedgerService) resolveTarget(runID string, clientID string) (table string, scoped string, client string, filter store.Filter, err error) {
	p, ok := runid.Parse(runID)
	if !ok {
		return "", "", "", nil, common.NewError(common.ErrCodeLedgerIdentifier,
			"Run id không đúng định dạng", common.StatusBadRequest,
			map[string]interface{}{"runId": runID})
	}

	if clientID == "" {
		clientID = p.ClientID
	}
	if clientID == "" {
		return global.MongoDB_ColNames.JobRuns, p.Base, "",
			store.Filter{"runId": p.Base}, nil
	}

	scoped, err = runid.Normalize(runID, clientID)
	if err != nil {
		return "", "", "", nil, err
	}
	return global.MongoDB_ColNames.ClientRuns, scoped, clientID,
		store.Filter{"runId": scoped, "clientId": clientID}, nil
}

// getRecord đọc field MỚI NHẤT của bản ghi từ store. Handle trong cache chỉ
// giúp bỏ qua bước tra cứu theo filter — field không bao giờ lấy từ cache,
// vì một process khác có thể vừa ghi lên cùng bản ghi và merge max() phải
// tính trên giá trị đang lưu thật sự. Handle chết thì Invalidate và tìm lại.
func (s *LedgerService) getRecord(ctx context.Context, table string, runID string, clientID string, filter store.Filter) (*store.Record, error) {
	if id := s.cache.Get(runID, clientID); id != "" {
		rec, err := s.findByID(ctx, table, id)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		s.cache.Invalidate(runID, clientID)
	}
	rec, err := s.findOne(ctx, table, filter)
	if err != nil {
		return nil, err
	}
	s.cache.Put(runID, clientID, rec.ID)
	return rec, nil
}

// findByID bọc store.FindByID với retry cho lỗi transient
func (s *LedgerService) findByID(ctx context.Context, table string, id string) (*store.Record, error) {
	var rec *store.Record
	err := s.retry.Do(ctx, func() error {
		r, ferr := s.store.FindByID(ctx, table, id)
		if ferr != nil {
			return ferr
		}
		rec = r
		return nil
	})
	return rec, err
}

// findOne bọc store.FindOne với retry cho lỗi transient
func (s *LedgerService) findOne(ctx context.Context, table string, filter store.Filter) (*store.Record, error) {
	var rec *store.Record
	err := s.retry.Do(ctx, func() error {
		r, ferr := s.store.FindOne(ctx, table, filter)
		if ferr != nil {
			return ferr
		}
		rec = r
		return nil
	})
	return rec, err
}

// findAll bọc store.Find với retry cho lỗi transient
func (s *LedgerService) findAll(ctx context.Context, table string, filter store.Filter) ([]*store.Record, error) {
	var records []*store.Record
	err := s.retry.Do(ctx, func() error {
		r, ferr := s.store.Find(ctx, table, filter)
		if ferr != nil {
			return ferr
		}
		records = r
		return nil
	})
	return records, err
}

// createWithRecheck tạo bản ghi với retry an toàn: create trả lỗi transient
// vẫn CÓ THỂ đã ghi thành công phía store, nên trước mỗi lần tạo lại phải
// FindOne — nếu bản ghi đã xuất hiện thì coi như thành công, không tạo bản sao.
func (s *LedgerService) createWithRecheck(ctx context.Context, table string, filter store.Filter, fields map[string]interface{}) (*store.Record, error) {
	delay := s.retry.Base
	var lastErr error
	for attempt := 0; attempt <= s.retry.Max; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2

			found, ferr := s.findOne(ctx, table, filter)
			if ferr == nil {
				s.log.WithField("filter", filter).
					Warn("Create trước đó đã thành công dù báo lỗi transient, dùng lại bản ghi")
				return found, nil
			}
			if !errors.Is(ferr, common.ErrNotFound) {
				return nil, ferr
			}
		}

		rec, cerr := s.store.Create(ctx, table, fields)
		if cerr == nil {
			return rec, nil
		}
		if !common.IsTransient(cerr) {
			return nil, cerr
		}
		lastErr = cerr
	}
	return nil, lastErr
}

// updateRecord bọc store.UpdateByID với retry và phục hồi handle:
// not-found nghĩa là handle trong cache đã chết — tìm lại đúng một lần
// rồi update với handle mới. Không bao giờ fallback sang create.
func (s *LedgerService) updateRecord(ctx context.Context, table string, rec *store.Record, runID string, clientID string, filter store.Filter, fields map[string]interface{}) (*store.Record, error) {
	updated, err := s.updateByID(ctx, table, rec.ID, fields)
	if errors.Is(err, common.ErrNotFound) {
		s.cache.Invalidate(runID, clientID)
		s.log.WithFields(logrus.Fields{
			"run_id":    runID,
			"record_id": rec.ID,
		}).Warn("Handle bản ghi trong cache không còn hiệu lực, tìm lại từ store")

		fresh, ferr := s.findOne(ctx, table, filter)
		if ferr != nil {
			return nil, ferr
		}
		updated, err = s.updateByID(ctx, table, fresh.ID, fields)
	}
	if err != nil {
		return nil, err
	}
	s.cache.Put(runID, clientID, updated.ID)
	return updated, nil
}

func (s *LedgerService) updateByID(ctx context.Context, table string, id string, fields map[string]interface{}) (*store.Record, error) {
	var updated *store.Record
	err := s.retry.Do(ctx, func() error {
		u, uerr := s.store.UpdateByID(ctx, table, id, fields)
		if uerr != nil {
			return uerr
		}
		updated = u
		return nil
	})
	return updated, err
}

// zeroCounters tạo bộ counter với mọi counter cấu hình ở giá trị 0
func (s *LedgerService) zeroCounters() map[string]int64 {
	out := make(map[string]int64, len(s.counterNames))
	for _, name := range s.counterNames {
		out[name] = 0
	}
	return out
}

// validateCounters từ chối counter không khai báo trong cấu hình hoặc giá trị âm
func (s *LedgerService) validateCounters(counters map[string]int64) error {
	if len(counters) == 0 {
		return common.ErrRequiredField
	}
	for name, v := range counters {
		if _, ok := s.counters[name]; !ok {
			return common.NewError(common.ErrCodeValidationInput,
				"Counter không được khai báo trong cấu hình: "+name, common.StatusBadRequest,
				map[string]interface{}{"counter": name, "allowed": s.counterNames})
		}
		if v < 0 {
			return common.NewError(common.ErrCodeValidationInput,
				"Giá trị counter không được âm: "+name, common.StatusBadRequest,
				map[string]interface{}{"counter": name, "value": v})
		}
	}
	return nil
}

// track ghi một dòng vào nhật ký hoạt động với outcome suy từ err
func (s *LedgerService) track(action string, runID string, clientID string, source string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		var ce *common.Error
		if errors.As(err, &ce) {
			outcome = ce.Code.Code
		}
	}
	s.activity.Record(ActivityEntry{
		At:       s.now(),
		Action:   action,
		RunID:    runID,
		ClientID: clientID,
		Source:   source,
		Outcome:  outcome,
	})
}

// mergeCounters merge hai bộ counter theo quy tắc max() từng phần tử.
// Kết quả là map mới, không đụng vào hai map đầu vào.
func mergeCounters(current map[string]int64, incoming map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(current)+len(incoming))
	for name, v := range current {
		out[name] = v
	}
	for name, v := range incoming {
		out[name] = maxInt64(out[name], v)
	}
	return out
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// countersFrom đọc bộ counter từ fields, chịu được các kiểu số bson trả về
func countersFrom(fields map[string]interface{}) map[string]int64 {
	out := map[string]int64{}
	raw, ok := fields["counters"]
	if !ok || raw == nil {
		return out
	}
	switch m := raw.(type) {
	case map[string]int64:
		for name, v := range m {
			out[name] = v
		}
	case map[string]interface{}:
		for name, v := range m {
			if n, ok := utility.ToInt64(v); ok {
				out[name] = n
			}
		}
	case bson.M:
		for name, v := range m {
			if n, ok := utility.ToInt64(v); ok {
				out[name] = n
			}
		}
	}
	return out
}

func notesFrom(fields map[string]interface{}) string {
	notes, _ := fields["notes"].(string)
	return notes
}

func statusFrom(fields map[string]interface{}) string {
	status, _ := fields["status"].(string)
	return status
}

// appendNote nối một ghi chú mới vào chuỗi notes hiện có,
// luôn kèm timestamp UTC và source — notes là append-only.
func appendNote(existing string, note string, source string, at int64) string {
	if note == "" {
		return existing
	}
	line := fmt.Sprintf("[%s %s] %s", time.UnixMilli(at).UTC().Format(time.RFC3339), source, note)
	if existing == "" {
		return line
	}
	return existing + "\n" + line
}
