package database

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vladimiradmaev/health-dialogue/internal/config"
	"github.com/vladimiradmaev/health-dialogue/internal/database/migrations"
	"github.com/vladimiradmaev/health-dialogue/internal/logger"
)

// User is the profile owner. TelegramID is nil for users created over HTTP.
type User struct {
	gorm.Model
	TelegramID        *int64 `gorm:"uniqueIndex"`
	Name              string
	Age               *int
	Gender            string `gorm:"type:varchar(16)"`
	HeightCM          *float64
	WeightKG          *float64
	MedicalConditions string `gorm:"type:text"`
	Allergies         string `gorm:"type:text"`
}

type Chat struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	UserID    uint   `gorm:"not null;index:idx_chats_user_created,priority:1"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	Message   string `gorm:"type:text;not null"`
	Response  string `gorm:"type:text"`
	Category  string `gorm:"type:varchar(32);not null;default:general"`
	Metadata  datatypes.JSONMap
	CreatedAt time.Time `gorm:"index:idx_chats_user_created,priority:2"`
}

type Notification struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	UserID       uint   `gorm:"not null;index"`
	User         User   `gorm:"constraint:OnDelete:CASCADE"`
	Type         string `gorm:"type:varchar(32);not null"`
	Title        string `gorm:"size:255;not null"`
	Message      string `gorm:"type:text"`
	ScheduledFor time.Time
	IsRead       bool `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Open connects to Postgres without touching the schema
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// NewPostgresDB connects to Postgres and brings the schema up to date
func NewPostgresDB(cfg config.DBConfig) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logger.Info("Database connection established and migrations completed", "host", cfg.Host, "database", cfg.DBName)
	return db, nil
}

func sqlMigrator(db *gorm.DB) (*migrations.Migrator, error) {
	m := migrations.NewMigrator(db)
	if err := m.LoadSQL(migrations.SQLFiles, "sql"); err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	return m, nil
}

// Migrate creates the tables and then applies the SQL migrations on top
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &Chat{}, &Notification{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	m, err := sqlMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Run(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// PendingMigrations lists the SQL migrations that Migrate would apply
func PendingMigrations(db *gorm.DB) ([]string, error) {
	m, err := sqlMigrator(db)
	if err != nil {
		return nil, err
	}
	return m.Pending()
}
