package global

import (
	"lead_harvest/config"
	"lead_harvest/internal/registry"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB_Data_CollectionName chứa tên các collection trong MongoDB
type MongoDB_Data_CollectionName struct {
	JobRuns    string // Tên collection cho bản ghi job run (master)
	ClientRuns string // Tên collection cho bản ghi client run (child)
	Clients    string // Tên collection cho danh sách client
}

// Các biến toàn cục
var Validate *validator.Validate                    // Biến để xác thực dữ liệu
var MongoDB_Session *mongo.Client                   // Phiên kết nối tới MongoDB
var MongoDB_ServerConfig *config.Configuration      // Cấu hình của server
var MongoDB_ColNames = MongoDB_Data_CollectionName{ // Tên các collection
	JobRuns:    "ledger_job_runs",
	ClientRuns: "ledger_client_runs",
	Clients:    "clients",
}

// Các Registry
var RegistryCollections = registry.NewRegistry[*mongo.Collection]() // Registry chứa các collections
var RegistryDatabase = registry.NewRegistry[*mongo.Database]()      // Registry chứa các databases
