package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead_harvest/internal/api/ledger/models"
	"lead_harvest/internal/api/ledger/store"
	"lead_harvest/internal/common"
	"lead_harvest/internal/global"
)

const testBaseRun = "250101-000000"

func newTestService() (*LedgerService, *store.MemoryRecordStore) {
	st := store.NewMemoryRecordStore()
	svc := NewLedgerService(st, LedgerOptions{
		AllowedSources: []string{"scheduler", "tenant-worker"},
		CounterNames:   []string{"postsExamined", "postsHarvested", "tokensUsed"},
		ActivitySize:   50,
		RetryMax:       3,
		RetryBase:      time.Millisecond,
	})
	svc.nowFunc = func() time.Time {
		return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return svc, st
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	var ce *common.Error
	require.True(t, errors.As(err, &ce), "lỗi phải là *common.Error, nhận được: %v", err)
	return ce.Code.Code
}

func TestCreateJob_TaoMotLanDuyNhat(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()

	job, err := svc.CreateJob(ctx, testBaseRun, 1, "scheduler")
	require.NoError(t, err)
	assert.Equal(t, testBaseRun, job.RunID)
	assert.Equal(t, models.RunStatusRunning, job.Status)
	assert.Equal(t, int64(0), job.Counters["postsExamined"])
	assert.Contains(t, job.Notes, "scheduler")

	// Gọi lại với cùng run id phải trả LED_002, không tạo bản ghi thứ hai
	_, err = svc.CreateJob(ctx, testBaseRun, 1, "scheduler")
	require.Error(t, err)
	assert.Equal(t, "LED_002", errCode(t, err))
	assert.True(t, errors.Is(err, common.ErrRunAlreadyExists))
	assert.Equal(t, 1, st.Count(global.MongoDB_ColNames.JobRuns, store.Filter{"runId": testBaseRun}))
}

func TestCreateJob_TuChoiSourceNgoaiAllowList(t *testing.T) {
	svc, st := newTestService()

	_, err := svc.CreateJob(context.Background(), testBaseRun, 1, "random-caller")
	require.Error(t, err)
	assert.Equal(t, "LED_001", errCode(t, err))
	assert.Equal(t, 0, st.Count(global.MongoDB_ColNames.JobRuns, store.Filter{}))
}

func TestCreateJob_TuChoiRunIdSai(t *testing.T) {
	svc, _ := newTestService()

	for _, id := range []string{"", "run-abc", "250101-000000-Acme", "991345-990000"} {
		_, err := svc.CreateJob(context.Background(), id, 1, "scheduler")
		require.Error(t, err, "run id %q phải bị từ chối", id)
		assert.Equal(t, "LED_003", errCode(t, err))
	}
}

func TestGetOrCreateClientRun_Idempotent(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()

	first, err := svc.GetOrCreateClientRun(ctx, testBaseRun, "Acme", "Acme Corp", "tenant-worker")
	require.NoError(t, err)
	assert.Equal(t, testBaseRun+"-Acme", first.RunID)
	assert.Equal(t, testBaseRun, first.BaseRunID)
	assert.Equal(t, models.RunStatusRunning, first.Status)

	// Gọi lại phải trả về đúng bản ghi cũ, store vẫn chỉ có một row
	second, err := svc.GetOrCreateClientRun(ctx, testBaseRun, "Acme", "Acme Corp", "tenant-worker")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, st.Count(global.MongoDB_ColNames.ClientRuns,
		store.Filter{"baseRunId": testBaseRun, "clientId": "Acme"}))

	// Truyền id đã scope sẵn cũng phải về cùng bản ghi
	third, err := svc.GetOrCreateClientRun(ctx, testBaseRun+"-Acme", "Acme", "Acme Corp", "tenant-worker")
	require.NoError(t, err)
	assert.Equal(t, first.ID, third.ID)
}

func TestGetOrCreateClientRun_DocKhongCanQuyenTaoMoi(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// Source ngoài allow-list không được tạo
	_, err := svc.GetOrCreateClientRun(ctx, testBaseRun, "Acme", "Acme Corp", "random-caller")
	require.Error(t, err)
	assert.Equal(t, "LED_001", errCode(t, err))

	// Nhưng khi bản ghi đã tồn tại thì get-or-create chỉ là get, không cần quyền
	_, err = svc.GetOrCreateClientRun(ctx, testBaseRun, "Acme", "Acme Corp", "tenant-worker")
	require.NoError(t, err)
	got, err := svc.GetOrCreateClientRun(ctx, testBaseRun, "Acme", "Acme Corp", "random-caller")
	require.NoError(t, err)
	assert.Equal(t, testBaseRun+"-Acme", got.RunID)
}

func TestGetOrCreateClientRun_TuChoiIdScopeClientKhac(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetOrCreateClientRun(context.Background(), testBaseRun+"-Globex", "Acme", "", "tenant-worker")
	require.Error(t, err)
	assert.Equal(t, "LED_004", errCode(t, err))
}

func TestUpdateMetrics_MergeQuaMax(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.GetOrCreateClientRun(ctx, testBaseRun, "Acme", "", "tenant-worker")
	require.NoError(t, err)
	runID := testBaseRun + "-Acme"

	// Counter tăng dần bình thường
	view, err := svc.UpdateMetrics(ctx, runID, "Acme", map[string]int64{"postsExamined": 5}, "", "tenant-worker")
	require.NoError(t, err)
	assert.Equal(t, int64(5), view.Counters["postsExamined"])

	// Webhook đến trễ với giá trị nhỏ hơn: counter không được giảm
	view, err = svc.UpdateMetrics(ctx, runID, "Acme", map[string]int64{"postsExamined": 3}, "", "tenant-worker")
	require.NoError(t, err)
	assert.Equal(t, int64(5), view.Counters["postsExamined"], "counter không bao giờ giảm")

	view, err = svc.UpdateMetrics(ctx, runID, "Acme",
		map[string]int64{"postsExamined": 10, "tokensUsed": 120}, "Đã quét xong", "tenant-worker")
	require.NoError(t, err)
	assert.Equal(t, int64(10), view.Counters["postsExamined"])
	assert.Equal(t, int64(120), view.Counters["tokensUsed"])
	assert.Contains(t, view.Notes, "Đã quét xong")
	assert.Contains(t, view.Notes, "tenant-worker")
}

func TestUpdateMetrics_WebhookGuiLaiKhongDoiKetQua(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.GetOrCreateClientRun(ctx, testBaseRun, "Acme", "", "tenant-worker")
	require.NoError(t, err)
	runID := testBaseRun + "-Acme"

	// Cùng một payload gửi hai lần (retry phía gửi) phải cho cùng kết quả
	for i := 0; i < 2; i++ {
		view, err := svc.UpdateMetrics(ctx, runID, "Acme", map[string]int64{"postsHarvested": 40}, "", "tenant-worker")
		require.NoError(t, err)
		assert.Equal(t, int64(40), view.Counters["postsHarvested"])
	}
}

func TestUpdateMetrics_HaiServiceGhiCungBanGhi(t *testing.T) {
	// Hai service instance độc lập (mô phỏng hai process) trên cùng một store:
	// merge max() phải tính trên giá trị đang lưu thật sự, không phải bản
	// instance này đọc được lần cuối.
	st := store.NewMemoryRecordStore()
	opts := LedgerOptions{
		AllowedSources: []string{"scheduler", "tenant-worker"},
		CounterNames:   []string{"postsExamined", "postsHarvested", "tokensUsed"},
		ActivitySize:   50,
		RetryMax:       3,
		RetryBase:      time.Millisecond,
	}
	svcA := NewLedgerService(st, opts)
	svcB := NewLedgerService(st, opts)
	ctx := context.Background()

	// A tạo bản ghi (và giữ handle trong cache của nó)
	_, err := svcA.GetOrCreateClientRun(ctx, testBaseRun, "Acme", "", "tenant-worker")
	require.NoError(t, err)
	runID := testBaseRun + "-Acme"

	// B ghi 12 trước, A ghi 8 sau: A không được đè giá trị của B
	_, err = svcB.UpdateMetrics(ctx, runID, "Acme", map[string]int64{"postsExamined": 12}, "", "tenant-worker")
	require.NoError(t, err)
	view, err := svcA.UpdateMetrics(ctx, runID, "Acme", map[string]int64{"postsExamined": 8}, "", "tenant-worker")
	require.NoError(t, err)
	assert.Equal(t, int64(12), view.Counters["postsExamined"],
		"max-merge phải dùng giá trị đang lưu trong store, không phải giá trị A đọc lần cuối")

	// Chiều ngược lại: A ghi 20, B (cache còn giá trị cũ) ghi 15 — store giữ 20
	_, err = svcA.UpdateMetrics(ctx, runID, "Acme", map[string]int64{"postsExamined": 20}, "", "tenant-worker")
	require.NoError(t, err)
	view, err = svcB.UpdateMetrics(ctx, runID, "Acme", map[string]int64{"postsExamined": 15}, "", "tenant-worker")
	require.NoError(t, err)
	assert.Equal(t, int64(20), view.Counters["postsExamined"])

	// Store thật sự giữ max của mọi lần ghi
	rec, err := st.FindOne(ctx, global.MongoDB_ColNames.ClientRuns, store.Filter{"runId": runID, "clientId": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, int64(20), countersFrom(rec.Fields)["postsExamined"])
}

func TestUpdateMetrics_KhongTaoBanGhiMoi(t *testing.T) {
	svc, st := newTestService()

	// Update lên run chưa tồn tại phải trả not-found, tuyệt đối không tạo
	_, err := svc.UpdateMetrics(context.Background(), testBaseRun+"-Acme", "Acme",
		map[string]int64{"postsExamined": 5}, "", "tenant-worker")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
	assert.Equal(t, 0, st.Count(global.MongoDB_ColNames.ClientRuns, store.Filter{}))
}

func TestUpdateMetrics_TuChoiCounterLaVaGiaTriAm(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.GetOrCreateClientRun(ctx, testBaseRun, "Acme", "", "tenant-worker")
	require.NoError(t, err)
	runID := testBaseRun + "-Acme"

	_, err = svc.UpdateMetrics(ctx, runID, "Acme", map[string]int64{"unknownCounter": 1}, "", "tenant-worker")
	require.Error(t, err)
	assert.Equal(t, "VAL_001", errCode(t, err))

	_, err = svc.UpdateMetrics(ctx, runID, "Acme", map[string]int64{"postsExamined": -1}, "", "tenant-worker")
	require.Error(t, err)
	assert.Equal(t, "VAL_001", errCode(t, err))
}

func TestUpdateRunRecord_ChanFieldBaoVe(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.GetOrCreateClientRun(ctx, testBaseRun, "Acme", "", "tenant-worker")
	require.NoError(t, err)
	runID := testBaseRun + "-Acme"

	for _, field := range []string{"runId", "clientId", "counters", "status", "createdAt"} {
		_, err := svc.UpdateRunRecord(ctx, runID, "Acme", map[string]interface{}{field: "x"}, "tenant-worker")
		require.Error(t, err, "field %q phải bị chặn", field)
		assert.Equal(t, "VAL_001", errCode(t, err))
	}

	// Field tự do vẫn cập nhật được, notes được append chứ không ghi đè
	view, err := svc.UpdateRunRecord(ctx, runID, "Acme",
		map[string]interface{}{"clientName": "Acme Corp", "notes": "Đổi tên hiển thị"}, "tenant-worker")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", view.ClientName)
	assert.Contains(t, view.Notes, "Client run bắt đầu")
	assert.Contains(t, view.Notes, "Đổi tên hiển thị")
}

func TestCompleteRun_StateMachine(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.GetOrCreateClientRun(ctx, testBaseRun, "Acme", "", "tenant-worker")
	require.NoError(t, err)
	runID := testBaseRun + "-Acme"

	// Trạng thái không hợp lệ bị từ chối
	_, err = svc.CompleteRun(ctx, runID, "Acme", "Running", "", "tenant-worker")
	require.Error(t, err)
	assert.Equal(t, "VAL_001", errCode(t, err))

	view, err := svc.CompleteRun(ctx, runID, "Acme", models.RunStatusSuccess, "Xong", "tenant-worker")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSuccess, view.Status)
	assert.NotZero(t, view.CompletedAt)

	// Gọi lại cùng trạng thái: không bị từ chối, end time ghi lại và note mới được append
	again, err := svc.CompleteRun(ctx, runID, "Acme", models.RunStatusSuccess, "Xác nhận lại", "tenant-worker")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSuccess, again.Status)
	assert.NotZero(t, again.CompletedAt)
	assert.Contains(t, again.Notes, "Xong")
	assert.Contains(t, again.Notes, "Xác nhận lại")

	// Đổi sang trạng thái kết thúc khác: vi phạm state machine
	_, err = svc.CompleteRun(ctx, runID, "Acme", models.RunStatusError, "", "tenant-worker")
	require.Error(t, err)
	assert.Equal(t, "LED_004", errCode(t, err))
}

func TestAggregateJob_TongHopTuClientRuns(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateJob(ctx, testBaseRun, 1, "scheduler")
	require.NoError(t, err)

	for _, client := range []string{"Acme", "Globex"} {
		_, err := svc.GetOrCreateClientRun(ctx, testBaseRun, client, "", "tenant-worker")
		require.NoError(t, err)
	}

	// Acme: 5 -> 3 -> 10 (max-merge giữ 10), Globex: 10
	for _, v := range []int64{5, 3, 10} {
		_, err := svc.UpdateMetrics(ctx, testBaseRun+"-Acme", "Acme",
			map[string]int64{"postsExamined": v}, "", "tenant-worker")
		require.NoError(t, err)
	}
	_, err = svc.UpdateMetrics(ctx, testBaseRun+"-Globex", "Globex",
		map[string]int64{"postsExamined": 10}, "", "tenant-worker")
	require.NoError(t, err)

	_, err = svc.CompleteRun(ctx, testBaseRun+"-Acme", "Acme", models.RunStatusSuccess, "", "tenant-worker")
	require.NoError(t, err)
	_, err = svc.CompleteRun(ctx, testBaseRun+"-Globex", "Globex", models.RunStatusError, "Quota hết", "tenant-worker")
	require.NoError(t, err)

	job, err := svc.AggregateJob(ctx, testBaseRun, "scheduler")
	require.NoError(t, err)
	assert.Equal(t, int64(20), job.Counters["postsExamined"])
	assert.Equal(t, int64(2), job.ClientsProcessed)
	assert.Equal(t, int64(1), job.ClientsWithErrors)

	// Aggregation chạy lại phải idempotent
	job, err = svc.AggregateJob(ctx, testBaseRun, "scheduler")
	require.NoError(t, err)
	assert.Equal(t, int64(20), job.Counters["postsExamined"])
	assert.Equal(t, int64(2), job.ClientsProcessed)
}

func TestAggregateJob_MasterKhongTonTai(t *testing.T) {
	svc, st := newTestService()

	_, err := svc.AggregateJob(context.Background(), testBaseRun, "scheduler")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
	assert.Equal(t, 0, st.Count(global.MongoDB_ColNames.JobRuns, store.Filter{}))
}

func TestGetRunRecord_PhanGiaiJobVaClient(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateJob(ctx, testBaseRun, 2, "scheduler")
	require.NoError(t, err)
	_, err = svc.GetOrCreateClientRun(ctx, testBaseRun, "Acme", "Acme Corp", "tenant-worker")
	require.NoError(t, err)

	// Base id -> bản ghi job
	job, err := svc.GetRunRecord(ctx, testBaseRun, "", "scheduler")
	require.NoError(t, err)
	assert.Equal(t, testBaseRun, job.RunID)
	assert.Equal(t, 2, job.Stream)
	assert.Empty(t, job.ClientID)

	// Id đã scope -> bản ghi client
	client, err := svc.GetRunRecord(ctx, testBaseRun+"-Acme", "", "tenant-worker")
	require.NoError(t, err)
	assert.Equal(t, "Acme", client.ClientID)
	assert.Equal(t, testBaseRun, client.BaseRunID)

	// Base id + clientID tường minh cũng trỏ tới bản ghi client
	client2, err := svc.GetRunRecord(ctx, testBaseRun, "Acme", "tenant-worker")
	require.NoError(t, err)
	assert.Equal(t, client.ID, client2.ID)

	_, err = svc.GetRunRecord(ctx, testBaseRun, "Globex", "tenant-worker")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestRetry_FindTransientRoiThanhCong(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()

	_, err := svc.CreateJob(ctx, testBaseRun, 1, "scheduler")
	require.NoError(t, err)

	svc.cache.Invalidate(testBaseRun, "")
	st.FailFindOnce = 1
	job, err := svc.GetRunRecord(ctx, testBaseRun, "", "scheduler")
	require.NoError(t, err, "lỗi transient phải được retry trong suốt")
	assert.Equal(t, testBaseRun, job.RunID)
}

func TestRetry_CreateTransientKhongTaoBanSao(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()

	st.FailCreateOnce = 1
	job, err := svc.CreateJob(ctx, testBaseRun, 1, "scheduler")
	require.NoError(t, err)
	assert.Equal(t, testBaseRun, job.RunID)
	assert.Equal(t, 1, st.Count(global.MongoDB_ColNames.JobRuns, store.Filter{"runId": testBaseRun}),
		"retry create không được tạo bản ghi trùng")
}

func TestActivity_GhiNhanThaoTac(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateJob(ctx, testBaseRun, 1, "scheduler")
	require.NoError(t, err)
	_, _ = svc.CreateJob(ctx, testBaseRun, 1, "scheduler") // duplicate

	entries := svc.Activity()
	require.Len(t, entries, 2)
	assert.Equal(t, "createJob", entries[0].Action)
	assert.Equal(t, "ok", entries[0].Outcome)
	assert.Equal(t, "LED_002", entries[1].Outcome)
	assert.Equal(t, testBaseRun, entries[1].RunID)
}
