package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration chứa thông tin tĩnh cần thiết để chạy ứng dụng.
// Nó chứa thông tin cơ sở dữ liệu và cấu hình ledger.
type Configuration struct {
	Address               string `env:"ADDRESS" envDefault:":8080"`       // Địa chỉ server
	MongoDB_ConnectionURI string `env:"MONGODB_CONNECTION_URI,required"`  // URL kết nối cơ sở dữ liệu
	MongoDB_DBName_Data   string `env:"MONGODB_DBNAME_DATA,required"`     // Tên cơ sở dữ liệu data
	CORS_Origins          string `env:"CORS_ORIGINS" envDefault:"*"`      // Các origins được phép (phân cách bởi dấu phẩy, * = tất cả)
	RateLimit_Max         int    `env:"RATE_LIMIT_MAX" envDefault:"100"`  // Số request tối đa trong window (0 = disable rate limit)
	RateLimit_Window      int    `env:"RATE_LIMIT_WINDOW" envDefault:"60"` // Thời gian window (giây)

	// Ledger Configuration
	Ledger_AllowedCreators string `env:"LEDGER_ALLOWED_CREATORS" envDefault:"scheduler,tenant-worker"`            // Allow-list các source được phép tạo bản ghi run (phân cách bởi dấu phẩy)
	Ledger_Counters        string `env:"LEDGER_COUNTERS" envDefault:"postsExamined,postsHarvested,tokensUsed"` // Tên các counter số được merge monotonic (phân cách bởi dấu phẩy)
	Ledger_ActivitySize    int    `env:"LEDGER_ACTIVITY_SIZE" envDefault:"200"`                                 // Số thao tác ledger gần nhất giữ trong activity log
	Ledger_RetryMax        int    `env:"LEDGER_RETRY_MAX" envDefault:"3"`                                       // Số lần retry tối đa cho lỗi store transient
	Ledger_RetryBaseMs     int    `env:"LEDGER_RETRY_BASE_MS" envDefault:"200"`                                 // Backoff cơ sở giữa các lần retry (ms)

	// Harvest Scheduler Configuration
	Harvest_Stream          int  `env:"HARVEST_STREAM" envDefault:"1"`            // Số stream/partition của job harvest
	Harvest_IntervalMinutes int  `env:"HARVEST_INTERVAL_MINUTES" envDefault:"60"` // Khoảng thời gian giữa các run harvest (phút)
	Harvest_Enabled         bool `env:"HARVEST_ENABLED" envDefault:"false"`       // Bật/tắt scheduler chạy harvest định kỳ
}

// AllowedCreatorSources trả về allow-list source đã tách từ cấu hình
func (c *Configuration) AllowedCreatorSources() []string {
	return splitTrim(c.Ledger_AllowedCreators)
}

// CounterNames trả về danh sách tên counter đã tách từ cấu hình
func (c *Configuration) CounterNames() []string {
	return splitTrim(c.Ledger_Counters)
}

func splitTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// getEnvPath trả về đường dẫn đến file env dựa trên môi trường
func getEnvPath() string {
	// Mặc định sử dụng môi trường development
	environment := os.Getenv("GO_ENV")
	if environment == "" {
		environment = "development"
	}

	currentDir, err := os.Getwd()
	if err != nil {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không thể lấy được thư mục hiện tại: %v\n", err)
		return ""
	}

	// Tìm thư mục config/env
	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			return filepath.Join(envDir, fmt.Sprintf("%s.env", environment))
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// NewConfig sẽ đọc dữ liệu cấu hình từ file env được cung cấp
func NewConfig(files ...string) *Configuration {
	envPath := getEnvPath()
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
			fmt.Printf("Không thể load file env tại %s: %v\n", envPath, err)
		}
	}

	cfg := Configuration{}
	if err := env.Parse(&cfg); err != nil {
		fmt.Printf("Lỗi khi parse config: %+v\n", err)
		return nil
	}

	return &cfg
}
