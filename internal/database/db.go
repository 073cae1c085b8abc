package database

import (
	"fmt"
	"log"
	"time"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// AllModels lists every table managed by AutoMigrate.
func AllModels() []any {
	return []any{
		&models.User{},
		&models.Project{},
		&models.TemplateFile{},
		&models.TemplateAttachment{},
		&models.TemplateField{},
		&models.Assignment{},
		&models.Submission{},
		&models.ChecklistInstance{},
		&models.ChecklistItem{},
		&models.ChecklistFile{},
		&models.ChecklistFileVersion{},
		&models.Task{},
		&models.UnlockRequest{},
		&models.AuditLog{},
	}
}

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverPostgres, "":
		return postgres.Open(dsn), nil
	case DriverMySQL:
		return mysql.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
}

// Open connects to the store. Network databases get a few attempts since
// the server usually starts next to its database container.
func Open(driver, dsn string) (*gorm.DB, error) {
	d, err := dialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	maxAttempts := 10
	if driver == DriverSQLite {
		maxAttempts = 1
	}

	var db *gorm.DB
	for i := 1; i <= maxAttempts; i++ {
		log.Printf("trying to connect to DB (attempt %d/%d)...", i, maxAttempts)

		db, err = gorm.Open(d, &gorm.Config{TranslateError: true})
		if err == nil {
			log.Println("connected to DB successfully")
			break
		}

		log.Printf("failed to connect to DB: %v", err)
		if i < maxAttempts {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db after %d attempts: %w", maxAttempts, err)
	}

	if driver == DriverSQLite {
		// sqlite has a single writer; one connection serializes transactions
		// instead of failing them with "database is locked"
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Init opens, migrates and seeds the database or exits the process.
func Init(driver, dsn, adminUsername, adminPassword string) *gorm.DB {
	db, err := Open(driver, dsn)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatalf("%v", err)
	}

	if _, err := Seed(db, adminUsername, adminPassword); err != nil {
		log.Printf("seeding failed: %v", err)
	}

	return db
}
