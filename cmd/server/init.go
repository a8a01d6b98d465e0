package main

import (
	"lead_harvest/config"
	"lead_harvest/internal/database"
	"lead_harvest/internal/global"

	"github.com/sirupsen/logrus"
)

// InitGlobal khởi tạo các biến toàn cục của ứng dụng
func InitGlobal() {
	initValidator()        // Khởi tạo validator
	initConfig()           // Khởi tạo cấu hình server
	initDatabase_MongoDB() // Khởi tạo kết nối database
}

// initValidator khởi tạo validator với các custom validation cho run id
func initValidator() {
	global.InitValidator()
	logrus.Info("Initialized validator")
}

// initConfig khởi tạo cấu hình từ env
func initConfig() {
	global.MongoDB_ServerConfig = config.NewConfig()
	if global.MongoDB_ServerConfig == nil {
		logrus.Fatal("Failed to load server configuration")
	}
	logrus.Info("Initialized configuration")
}

// initDatabase_MongoDB khởi tạo kết nối MongoDB
func initDatabase_MongoDB() {
	client, err := database.GetInstance(global.MongoDB_ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	global.MongoDB_Session = client
	logrus.Info("Initialized MongoDB connection")
}
