package config

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/songbirdapp/songbird/models"
)

// InitDB opens the MySQL connection, tunes the pool and migrates the schema.
func InitDB() (*gorm.DB, error) {
	c := Get()

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Entry{},
		&models.StreakState{},
		&models.BirdUnlock{},
		&models.Comment{},
		&models.Vibe{},
		&models.FriendRequest{},
		&models.Notification{},
		&models.NotificationPreference{},
		&models.PushSubscription{},
		&models.WaitlistSignup{},
		&models.AnalyticsEvent{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}
