// Package runid - Test codec run id: sinh, scope, phân rã, normalize.
package runid

import (
	"errors"
	"strings"
	"testing"
	"time"

	"lead_harvest/internal/common"
)

func TestNew_DungDinhDangVaSortable(t *testing.T) {
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return fixed }
	defer func() { nowFunc = time.Now }()

	id := New()
	if id != "250101-000000" {
		t.Fatalf("New() = %q, muốn 250101-000000", id)
	}

	nowFunc = func() time.Time { return fixed.Add(time.Second) }
	id2 := New()
	if !(id < id2) {
		t.Errorf("id sinh sau phải lớn hơn theo thứ tự từ điển: %q vs %q", id, id2)
	}
}

func TestParse_BaseVaScoped(t *testing.T) {
	parsed, ok := Parse("250101-120000")
	if !ok {
		t.Fatal("Parse base id hợp lệ phải ok")
	}
	if parsed.Base != "250101-120000" || parsed.ClientID != "" {
		t.Errorf("Parse base id sai: %+v", parsed)
	}

	parsed, ok = Parse("250101-120000-Acme")
	if !ok {
		t.Fatal("Parse scoped id hợp lệ phải ok")
	}
	if parsed.Base != "250101-120000" || parsed.ClientID != "Acme" {
		t.Errorf("Parse scoped id sai: %+v", parsed)
	}

	// Client id chứa separator vẫn round-trip được (suffix là phần còn lại)
	parsed, ok = Parse("250101-120000-rec-ABC-01")
	if !ok || parsed.ClientID != "rec-ABC-01" {
		t.Errorf("Parse suffix chứa separator sai: %+v ok=%v", parsed, ok)
	}
}

func TestParse_LegacyKhongNhanDien(t *testing.T) {
	legacy := []string{
		"",
		"run-12345",
		"2501011-20000",       // sai vị trí separator
		"250101_120000",       // sai separator
		"250101-120000-",      // suffix rỗng
		"991345-990000",       // đúng dạng số nhưng không phải timestamp thật
		"20250101-120000-Acme", // định dạng năm 4 chữ số (legacy)
	}
	for _, id := range legacy {
		if _, ok := Parse(id); ok {
			t.Errorf("Parse(%q) phải trả về không nhận diện", id)
		}
	}
}

func TestScopeToClient_RoundTrip(t *testing.T) {
	base := "250101-120000"
	// clientId chứa separator vẫn round-trip được: phân rã theo vị trí
	// (base có độ dài cố định), không theo ký tự phân cách
	for _, client := range []string{"Acme", "Globex", "recXYZ123", "acme-corp.us"} {
		scoped, err := ScopeToClient(base, client)
		if err != nil {
			t.Fatalf("ScopeToClient(%q, %q) lỗi: %v", base, client, err)
		}
		if b, ok := BaseOf(scoped); !ok || b != base {
			t.Errorf("BaseOf(%q) = %q, muốn %q", scoped, b, base)
		}
		if c, ok := ClientOf(scoped); !ok || c != client {
			t.Errorf("ClientOf(%q) = %q, muốn %q", scoped, c, client)
		}
	}
}

func TestScopeToClient_TuChoiDauVaoXau(t *testing.T) {
	if _, err := ScopeToClient("250101-120000", ""); err == nil {
		t.Error("clientID rỗng phải bị từ chối")
	}
	if _, err := ScopeToClient("250101-120000-Acme", "Globex"); err == nil {
		t.Error("base đã scope phải bị từ chối (không scope chồng)")
	}
	if _, err := ScopeToClient("not-a-run-id", "Acme"); err == nil {
		t.Error("base không hợp lệ phải bị từ chối")
	}
}

func TestNormalize(t *testing.T) {
	// Base id → scope theo client
	got, err := Normalize("250101-120000", "Acme")
	if err != nil || got != "250101-120000-Acme" {
		t.Errorf("Normalize(base) = %q, %v", got, err)
	}

	// Đã scope đúng client → giữ nguyên
	got, err = Normalize("250101-120000-Acme", "Acme")
	if err != nil || got != "250101-120000-Acme" {
		t.Errorf("Normalize(scoped) = %q, %v", got, err)
	}

	// Scope theo client khác → lỗi consistency
	_, err = Normalize("250101-120000-Globex", "Acme")
	var cerr *common.Error
	if !errors.As(err, &cerr) || cerr.Code.Code != common.ErrCodeLedgerConsistency.Code {
		t.Errorf("Normalize client mâu thuẫn phải trả lỗi LED_004, got %v", err)
	}

	// Id legacy → lỗi identifier, không tự sinh id mới
	_, err = Normalize("legacy-id-999", "Acme")
	if !errors.As(err, &cerr) || cerr.Code.Code != common.ErrCodeLedgerIdentifier.Code {
		t.Errorf("Normalize id legacy phải trả lỗi LED_003, got %v", err)
	}
}

func TestMigrateLegacy_SinhIdMoiCoScope(t *testing.T) {
	fixed := time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)
	nowFunc = func() time.Time { return fixed }
	defer func() { nowFunc = time.Now }()

	got := MigrateLegacy("run-cu-khong-parse-duoc", "Acme")
	if !strings.HasPrefix(got, "250315-103000") {
		t.Errorf("MigrateLegacy phải sinh base id mới theo thời gian hiện tại, got %q", got)
	}
	if c, ok := ClientOf(got); !ok || c != "Acme" {
		t.Errorf("MigrateLegacy phải scope theo client, got %q", got)
	}
}
