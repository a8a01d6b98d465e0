package service

import (
	"sort"
	"strings"

	"lead_harvest/internal/common"
)

// Gatekeeper kiểm soát quyền tạo bản ghi run mới.
// Chỉ các source nằm trong allow-list (cấu hình LEDGER_ALLOWED_CREATORS)
// được phép tạo bản ghi; mọi source khác chỉ được đọc và cập nhật.
type Gatekeeper struct {
	allowed map[string]struct{}
}

// NewGatekeeper khởi tạo gatekeeper từ danh sách source được phép
func NewGatekeeper(sources []string) *Gatekeeper {
	allowed := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		s = strings.TrimSpace(s)
		if s != "" {
			allowed[s] = struct{}{}
		}
	}
	return &Gatekeeper{allowed: allowed}
}

// Authorize kiểm tra source có được phép tạo bản ghi không.
// Trả về lỗi LED_001 kèm source bị từ chối trong Details.
func (g *Gatekeeper) Authorize(source string) error {
	if _, ok := g.allowed[source]; ok {
		return nil
	}
	return common.NewError(common.ErrCodeLedgerAuthorization,
		"Nguồn gọi không được phép tạo bản ghi run", common.StatusForbidden,
		map[string]interface{}{"source": source, "allowed": g.Sources()})
}

// Sources trả về danh sách source được phép (đã sort, phục vụ log/debug)
func (g *Gatekeeper) Sources() []string {
	out := make([]string, 0, len(g.allowed))
	for s := range g.allowed {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
