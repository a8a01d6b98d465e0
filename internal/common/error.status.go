package common

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// HTTP Status Code Constants
const (
	// Success Codes (2xx)
	StatusOK      = 200 // Thành công
	StatusCreated = 201 // Tạo mới thành công

	// Client Error Codes (4xx)
	StatusBadRequest      = 400 // Yêu cầu không hợp lệ
	StatusUnauthorized    = 401 // Chưa xác thực
	StatusForbidden       = 403 // Không có quyền truy cập
	StatusNotFound        = 404 // Không tìm thấy tài nguyên
	StatusConflict        = 409 // Xung đột dữ liệu
	StatusTooManyRequests = 429 // Quá nhiều yêu cầu

	// Server Error Codes (5xx)
	StatusInternalServerError = 500 // Lỗi server
	StatusServiceUnavailable  = 503 // Dịch vụ không khả dụng
	StatusGatewayTimeout      = 504 // Gateway timeout
)

// Response Messages
const (
	MsgSuccess         = "Thao tác thành công"
	MsgCreated         = "Tạo mới thành công"
	MsgBadRequest      = "Yêu cầu không hợp lệ"
	MsgNotFound        = "Không tìm thấy tài nguyên"
	MsgInternalError   = "Lỗi hệ thống"
	MsgValidationError = "Dữ liệu không hợp lệ"
	MsgDatabaseError   = "Lỗi tương tác với cơ sở dữ liệu"
	MsgInvalidFormat   = "Định dạng dữ liệu không hợp lệ"
)

// ErrorCode định nghĩa mã lỗi chi tiết
type ErrorCode struct {
	Code        string // Mã lỗi (ví dụ: LED_001)
	Category    string // Phân loại lỗi (ví dụ: Ledger)
	SubCategory string // Phân loại con (ví dụ: Authorization)
	Description string // Mô tả chi tiết
}

// Định nghĩa các mã lỗi theo hệ thống phân cấp
var (
	// System Errors (SYS_xxx)
	ErrCodeInternalServer = ErrorCode{
		Code:        "SYS_001",
		Category:    "System",
		SubCategory: "Internal",
		Description: "Lỗi hệ thống nội bộ",
	}

	// Validation Errors (VAL_xxx)
	ErrCodeValidationInput = ErrorCode{
		Code:        "VAL_001",
		Category:    "Validation",
		SubCategory: "Input",
		Description: "Lỗi dữ liệu đầu vào",
	}

	ErrCodeValidationFormat = ErrorCode{
		Code:        "VAL_002",
		Category:    "Validation",
		SubCategory: "Format",
		Description: "Lỗi định dạng dữ liệu",
	}

	// Database Errors (DB_xxx)
	ErrCodeDatabase = ErrorCode{
		Code:        "DB",
		Category:    "Database",
		SubCategory: "General",
		Description: "Lỗi cơ sở dữ liệu chung",
	}

	ErrCodeDatabaseConnection = ErrorCode{
		Code:        "DB_001",
		Category:    "Database",
		SubCategory: "Connection",
		Description: "Lỗi kết nối cơ sở dữ liệu (tạm thời, có thể retry)",
	}

	ErrCodeDatabaseQuery = ErrorCode{
		Code:        "DB_002",
		Category:    "Database",
		SubCategory: "Query",
		Description: "Lỗi truy vấn dữ liệu",
	}

	// Ledger Errors (LED_xxx)
	ErrCodeLedgerAuthorization = ErrorCode{
		Code:        "LED_001",
		Category:    "Ledger",
		SubCategory: "Authorization",
		Description: "Nguồn gọi không nằm trong allow-list tạo bản ghi",
	}

	ErrCodeLedgerDuplicate = ErrorCode{
		Code:        "LED_002",
		Category:    "Ledger",
		SubCategory: "Duplicate",
		Description: "Bản ghi job đã tồn tại cho run id này",
	}

	ErrCodeLedgerIdentifier = ErrorCode{
		Code:        "LED_003",
		Category:    "Ledger",
		SubCategory: "Identifier",
		Description: "Run id không đúng định dạng hoặc là id legacy",
	}

	ErrCodeLedgerConsistency = ErrorCode{
		Code:        "LED_004",
		Category:    "Ledger",
		SubCategory: "Consistency",
		Description: "Dữ liệu ledger không nhất quán (child không khớp master/client)",
	}
)

// Error định nghĩa cấu trúc lỗi chi tiết
type Error struct {
	Code       ErrorCode // Mã lỗi chi tiết
	Message    string    // Thông báo lỗi
	StatusCode int       // HTTP status code
	Details    any       // Thông tin chi tiết thêm về lỗi
}

// Error trả về message của lỗi
func (e *Error) Error() string {
	return e.Message
}

// Is kiểm tra xem error có phải là target error không (hỗ trợ errors.Is)
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if targetErr, ok := target.(*Error); ok {
		return e.Code.Code == targetErr.Code.Code && e.Message == targetErr.Message
	}
	return false
}

// NewError tạo một error mới với đầy đủ thông tin
func NewError(code ErrorCode, message string, statusCode int, details any) error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

// Custom errors
var (
	// Validation Errors
	ErrInvalidInput  = NewError(ErrCodeValidationInput, "Dữ liệu đầu vào không hợp lệ", StatusBadRequest, nil)
	ErrInvalidFormat = NewError(ErrCodeValidationFormat, "Định dạng dữ liệu không hợp lệ", StatusBadRequest, nil)
	ErrRequiredField = NewError(ErrCodeValidationInput, "Thiếu thông tin bắt buộc", StatusBadRequest, nil)

	// Database Errors
	ErrNotFound = NewError(ErrCodeDatabaseQuery, "Không tìm thấy dữ liệu", StatusNotFound, nil)

	// Store Errors — phân biệt transient (retry được) và permanent (không retry)
	ErrStoreTransient = NewError(ErrCodeDatabaseConnection, "Lỗi tạm thời khi truy cập record store", StatusServiceUnavailable, nil)
	ErrStorePermanent = NewError(ErrCodeDatabaseQuery, "Lỗi vĩnh viễn khi truy cập record store", StatusInternalServerError, nil)

	// Ledger Errors
	ErrRunUnauthorized  = NewError(ErrCodeLedgerAuthorization, "Nguồn gọi không được phép tạo bản ghi run", StatusForbidden, nil)
	ErrRunAlreadyExists = NewError(ErrCodeLedgerDuplicate, "Bản ghi job run đã tồn tại", StatusConflict, nil)
	ErrInvalidRunId     = NewError(ErrCodeLedgerIdentifier, "Run id không đúng định dạng", StatusBadRequest, nil)
	ErrInconsistentData = NewError(ErrCodeLedgerConsistency, "Dữ liệu ledger không nhất quán", StatusInternalServerError, nil)
)

// IsTransient kiểm tra một lỗi store có retry được không.
// Chỉ lỗi kết nối/timeout (DB_001) được coi là transient; mọi lỗi khác
// (kể cả timeout của chính caller) được trả về nguyên trạng để caller quyết định.
func IsTransient(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code.Code == ErrCodeDatabaseConnection.Code
	}
	return false
}

// ConvertMongoError chuyển đổi lỗi MongoDB sang lỗi hệ thống.
// Lỗi mạng/timeout được map về ErrStoreTransient để Ledger Service retry;
// các lỗi còn lại map về lỗi truy vấn (permanent).
func ConvertMongoError(err error) error {
	if err == nil {
		return nil
	}

	// Không convert các lỗi đã được phân loại
	var already *Error
	if errors.As(err, &already) {
		return err
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}

	// Lỗi mạng/timeout là transient
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return NewError(ErrCodeDatabaseConnection, MsgDatabaseError, StatusServiceUnavailable, err)
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		// Mã lỗi 1xx của MongoDB là nhóm kết nối
		if cmdErr.Code >= 100 && cmdErr.Code < 200 {
			return NewError(ErrCodeDatabaseConnection, MsgDatabaseError, StatusServiceUnavailable, err)
		}
		return NewError(ErrCodeDatabaseQuery, MsgDatabaseError, StatusInternalServerError, err)
	}

	if mongo.IsDuplicateKeyError(err) {
		return NewError(ErrCodeDatabaseQuery, "Dữ liệu trùng lặp trong MongoDB", StatusConflict, err)
	}

	return NewError(ErrCodeDatabase, MsgDatabaseError, StatusInternalServerError, err)
}
