// Package runid cung cấp codec cho run identifier của ledger.
//
// Base run id có dạng `YYMMDD-HHMMSS` (UTC, sortable theo thứ tự từ điển).
// Id scope theo client có dạng `YYMMDD-HHMMSS-<clientId>`.
// Id không khớp pattern (dữ liệu legacy) được trả về dưới dạng "không nhận diện"
// (ok = false) để caller chủ động rẽ nhánh xử lý legacy, không bao giờ đoán mò.
package runid

import (
	"regexp"
	"strings"
	"time"

	"lead_harvest/internal/common"
	"lead_harvest/internal/logger"
)

// Separator là ký tự nối giữa base id và client id
const Separator = "-"

// baseLayout là layout time.Format cho thành phần thời gian của run id
const baseLayout = "060102-150405"

// baseLength là độ dài cố định của base run id
const baseLength = len(baseLayout)

// basePattern khớp đúng thành phần thời gian `YYMMDD-HHMMSS`
var basePattern = regexp.MustCompile(`^\d{6}-\d{6}$`)

// nowFunc cho phép test cố định thời gian sinh id
var nowFunc = time.Now

// Parsed là kết quả phân rã một run id đã nhận diện được.
// ClientID rỗng nghĩa là id là base id (chưa scope theo client).
type Parsed struct {
	Base     string // Thành phần thời gian `YYMMDD-HHMMSS`
	ClientID string // Suffix client, rỗng nếu là base id
}

// String ghép lại run id chuẩn hóa từ các thành phần
func (p Parsed) String() string {
	if p.ClientID == "" {
		return p.Base
	}
	return p.Base + Separator + p.ClientID
}

// New sinh một base run id mới theo thời gian hiện tại (UTC).
// Hai lần gọi cách nhau >= 1 giây không bao giờ trùng; các lần gọi trong cùng
// một giây phân biệt bằng cách caller tự scope theo client — codec không dedupe.
func New() string {
	return nowFunc().UTC().Format(baseLayout)
}

// Parse phân rã một run id. ok = false khi id không khớp pattern nhận diện
// (legacy hoặc rác) — không bao giờ trả về kết quả đoán một phần.
func Parse(id string) (Parsed, bool) {
	if len(id) < baseLength {
		return Parsed{}, false
	}
	base := id[:baseLength]
	if !basePattern.MatchString(base) {
		return Parsed{}, false
	}
	// Thành phần thời gian phải là timestamp thật, không chỉ đúng dạng số
	if _, err := time.Parse(baseLayout, base); err != nil {
		return Parsed{}, false
	}
	if len(id) == baseLength {
		return Parsed{Base: base}, true
	}
	// Phần còn lại phải là Separator + clientId (khác rỗng)
	rest := id[baseLength:]
	if !strings.HasPrefix(rest, Separator) || len(rest) == len(Separator) {
		return Parsed{}, false
	}
	return Parsed{Base: base, ClientID: rest[len(Separator):]}, true
}

// BaseOf trả về thành phần thời gian của id. ok = false nếu id không nhận diện được.
func BaseOf(id string) (string, bool) {
	parsed, ok := Parse(id)
	if !ok {
		return "", false
	}
	return parsed.Base, true
}

// ClientOf trả về client suffix của id, rỗng nếu id là base id.
// ok = false nếu id không nhận diện được.
func ClientOf(id string) (string, bool) {
	parsed, ok := Parse(id)
	if !ok {
		return "", false
	}
	return parsed.ClientID, true
}

// ScopeToClient ghép base id với client id.
// Trả về ErrInvalidRunId nếu clientID rỗng hoặc base không phải base id hợp lệ
// (đã scope sẵn cũng bị từ chối — không scope chồng).
func ScopeToClient(base string, clientID string) (string, error) {
	if clientID == "" {
		return "", common.NewError(common.ErrCodeLedgerIdentifier,
			"clientID không được rỗng khi scope run id", common.StatusBadRequest, nil)
	}
	parsed, ok := Parse(base)
	if !ok || parsed.ClientID != "" {
		return "", common.NewError(common.ErrCodeLedgerIdentifier,
			"base run id không hợp lệ hoặc đã được scope: "+base, common.StatusBadRequest, nil)
	}
	return parsed.Base + Separator + clientID, nil
}

// Normalize chuẩn hóa một run id cho client đã biết:
//   - base id → scope theo clientID
//   - id đã scope đúng clientID → trả về dạng chuẩn
//   - id scope theo client khác → ErrInconsistentData (caller truyền tham số mâu thuẫn)
//   - id không nhận diện được → ErrInvalidRunId; đường migrate duy nhất là MigrateLegacy
func Normalize(id string, clientID string) (string, error) {
	if clientID == "" {
		return "", common.NewError(common.ErrCodeLedgerIdentifier,
			"clientID không được rỗng khi normalize run id", common.StatusBadRequest, nil)
	}
	parsed, ok := Parse(id)
	if !ok {
		return "", common.NewError(common.ErrCodeLedgerIdentifier,
			"run id không nhận diện được (legacy?): "+id, common.StatusBadRequest, nil)
	}
	if parsed.ClientID == "" {
		return parsed.Base + Separator + clientID, nil
	}
	if parsed.ClientID != clientID {
		return "", common.NewError(common.ErrCodeLedgerConsistency,
			"run id đã scope theo client khác: "+id, common.StatusBadRequest, nil)
	}
	return parsed.String(), nil
}

// MigrateLegacy là đường migrate duy nhất cho id không nhận diện được:
// sinh base id mới theo thời gian hiện tại và scope theo clientID.
// Bản ghi tạo từ id mới sẽ mất liên kết lineage với run gốc, nên luôn log warning
// kèm id gốc để có thể đối soát về sau.
func MigrateLegacy(id string, clientID string) string {
	fresh := New()
	logger.GetAppLogger().WithFields(map[string]interface{}{
		"legacy_id": id,
		"client_id": clientID,
		"new_base":  fresh,
	}).Warn("MigrateLegacy: run id không nhận diện được, sinh base id mới — bản ghi sẽ tách khỏi lineage cũ")
	if clientID == "" {
		return fresh
	}
	return fresh + Separator + clientID
}
