package db

import (
	"crypto/rand"
	"encoding/hex"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/taikhoandev/driveshare/internal/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB initializes the SQLite database connection and runs migrations.
func InitDB(dbPath string) (*gorm.DB, error) {
	database, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := database.AutoMigrate(&models.Upload{}, &models.Config{}); err != nil {
		return nil, err
	}

	ensureAPIKey(database)

	return database, nil
}

// ensureAPIKey generates an API key on first run. The key gates mutating
// endpoints; read access stays open.
func ensureAPIKey(database *gorm.DB) {
	var config models.Config
	result := database.Where("key = ?", "api_key").First(&config)

	if result.Error != nil {
		keyBytes := make([]byte, 16)
		rand.Read(keyBytes)
		apiKey := "sk-" + hex.EncodeToString(keyBytes)

		database.Create(&models.Config{
			Key:   "api_key",
			Value: apiKey,
		})
		log.Printf("generated new API key: %s", apiKey)
	}
}

// GetAPIKey retrieves the API key from the database.
func GetAPIKey(database *gorm.DB) string {
	var config models.Config
	database.Where("key = ?", "api_key").First(&config)
	return config.Value
}

// RecordUpload persists a completed upload.
func RecordUpload(database *gorm.DB, rec *models.Upload) error {
	return database.Create(rec).Error
}

// RecentUploads lists the newest uploads first, capped at limit.
func RecentUploads(database *gorm.DB, limit int) ([]models.Upload, error) {
	var uploads []models.Upload
	err := database.Order("created_at DESC").Limit(limit).Find(&uploads).Error
	return uploads, err
}
