package global

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"lead_harvest/internal/api/ledger/runid"
)

// sourceNamePattern giới hạn source là định danh ngắn kiểu "scheduler", "tenant-worker"
var sourceNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,64}$`)

// InitValidator khởi tạo và đăng ký các custom validator
func InitValidator() {
	Validate = validator.New()

	_ = Validate.RegisterValidation("run_id", validateRunId)
	_ = Validate.RegisterValidation("base_run_id", validateBaseRunId)
	_ = Validate.RegisterValidation("source_name", validateSourceName)
}

// validateRunId kiểm tra giá trị là run id hợp lệ (base hoặc đã scope theo client).
// Id legacy/không nhận diện được bị từ chối — caller phải đi qua đường migrate riêng.
func validateRunId(fl validator.FieldLevel) bool {
	_, ok := runid.Parse(fl.Field().String())
	return ok
}

// validateBaseRunId kiểm tra giá trị là base run id (chưa scope theo client)
func validateBaseRunId(fl validator.FieldLevel) bool {
	parsed, ok := runid.Parse(fl.Field().String())
	return ok && parsed.ClientID == ""
}

// validateSourceName kiểm tra source là định danh subsystem hợp lệ
func validateSourceName(fl validator.FieldLevel) bool {
	return sourceNamePattern.MatchString(fl.Field().String())
}
