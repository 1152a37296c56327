package config

import (
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	model "github.com/binary-star-near/nearcrowd-contract/internal/models"
)

// NewDatabaseClient opens the snapshot store and migrates its single table.
func NewDatabaseClient(dsn string) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	if err := db.AutoMigrate(&model.LedgerSnapshot{}); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	return db
}
