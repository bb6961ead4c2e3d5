package db

import (
	"os"
	"path/filepath"

	"github.com/raffnet/raffle-node/internal/config"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type DatabaseManager struct {
	roundDb  *gorm.DB
	ledgerDb *gorm.DB
}

func NewDatabaseManager() *DatabaseManager {
	dm := &DatabaseManager{}
	dm.initDB()
	return dm
}

func (dm *DatabaseManager) initDB() {
	dbDir := config.AppConfig.DbDir
	if err := os.MkdirAll(dbDir, os.ModePerm); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	roundPath := filepath.Join(dbDir, "round.db")
	roundDb, err := gorm.Open(sqlite.Open(roundPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("Failed to connect to round database: %v", err)
	}
	dm.roundDb = roundDb
	log.Debugf("Round database connected successfully, path: %s", roundPath)

	ledgerPath := filepath.Join(dbDir, "ledger.db")
	ledgerDb, err := gorm.Open(sqlite.Open(ledgerPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("Failed to connect to ledger database: %v", err)
	}
	dm.ledgerDb = ledgerDb
	log.Debugf("Ledger database connected successfully, path: %s", ledgerPath)

	dm.autoMigrate()
	log.Debugf("Database migration completed successfully")
}

func (dm *DatabaseManager) GetRoundDB() *gorm.DB {
	return dm.roundDb
}

func (dm *DatabaseManager) GetLedgerDB() *gorm.DB {
	return dm.ledgerDb
}

func (dm *DatabaseManager) autoMigrate() {
	if err := dm.roundDb.AutoMigrate(&Round{}, &Entry{}, &RandomnessRequest{}, &WinnerRecord{}); err != nil {
		log.Fatalf("Failed to migrate round database: %v", err)
	}
	if err := dm.ledgerDb.AutoMigrate(&Account{}); err != nil {
		log.Fatalf("Failed to migrate ledger database: %v", err)
	}
}
