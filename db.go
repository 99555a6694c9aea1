package main

import (
	"log"
	"strings"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"laptopstore/models"
)

var db *gorm.DB

func initDB(cfg Config) {
	var err error
	dsn := cfg.DSN
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This service requires a Postgres DSN (or a file:/sqlite DSN for local runs) in DB_DSN.")
	}
	db, err = gorm.Open(openDialector(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}
	// Migrate models individually so a failure on one doesn't block others
	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.Printf("migration warning (users): %v", err)
	}
	if err := db.AutoMigrate(&models.AuthToken{}); err != nil {
		log.Printf("migration warning (auth_tokens): %v", err)
	}
	seedDB()
}

// openDialector picks the driver from the DSN shape: sqlite for file:/memory
// DSNs (local runs and tests), Postgres for everything else.
func openDialector(dsn string) gorm.Dialector {
	if strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, ":memory:") {
		return sqlite.Open(dsn)
	}
	return postgres.Open(dsn)
}

func seedDB() {
	// Seed an initial admin so a fresh database is usable at all.
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin := models.User{
			Username:       "admin",
			HashedPassword: hashedPassword,
			Role:           models.RoleAdmin,
			Enabled:        true,
		}
		db.Create(&admin)
		log.Println("Seeded admin user: username=admin, password=admin123")
	}
}
