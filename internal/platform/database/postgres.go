package database

import (
	"database/sql"
	"time"

	"cfstats/internal/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"go.uber.org/zap"
)

var DB *sql.DB

func Connect() {
	var err error
	DB, err = sql.Open("pgx", config.AppConfig.DBConnStr)
	if err != nil {
		zap.L().Fatal("Error opening database", zap.Error(err))
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err = DB.Ping(); err != nil {
		zap.L().Fatal("Error connecting to database", zap.Error(err))
	}

	zap.L().Info("Successfully connected to PostgreSQL database")
}

func Close() {
	if DB != nil {
		DB.Close()
		zap.L().Info("Database connection closed")
	}
}
