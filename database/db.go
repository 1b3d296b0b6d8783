package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"siasa-backend/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on process environment")
	}

	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=Africa/Nairobi",
		host, os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"), port)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("Could not connect to database: " + err.Error())
	}

	// Small shared pool; each request is handled independently against it.
	sqlDB, err := DB.DB()
	if err != nil {
		panic("Could not access database pool: " + err.Error())
	}
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)
}

func AutoMigrate() {
	if err := DB.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.MpesaPayment{},
		&models.AuditTrail{},
	); err != nil {
		panic("automigrate failed: " + err.Error())
	}
}
