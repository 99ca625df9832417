package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/vladimiradmaev/health-dialogue/internal/logger"
)

// SQLFiles holds the versioned SQL migrations shipped with the binary
//
//go:embed sql/*.sql
var SQLFiles embed.FS

// Migration represents a database migration
type Migration struct {
	ID   string
	Up   func(*gorm.DB) error
	Down func(*gorm.DB) error
}

// MigrationRecord represents a record of executed migrations
type MigrationRecord struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt int64  `gorm:"autoCreateTime"`
}

// Migrator applies registered migrations once, in ID order
type Migrator struct {
	db         *gorm.DB
	migrations map[string]Migration
}

func NewMigrator(db *gorm.DB) *Migrator {
	return &Migrator{db: db, migrations: make(map[string]Migration)}
}

// Register adds a new migration to the registry
func (m *Migrator) Register(id string, up, down func(*gorm.DB) error) {
	m.migrations[id] = Migration{ID: id, Up: up, Down: down}
}

// Pending returns the IDs not yet recorded as executed
func (m *Migrator) Pending() ([]string, error) {
	if err := m.db.AutoMigrate(&MigrationRecord{}); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var executed []MigrationRecord
	if err := m.db.Find(&executed).Error; err != nil {
		return nil, fmt.Errorf("failed to get executed migrations: %w", err)
	}
	done := make(map[string]bool, len(executed))
	for _, r := range executed {
		done[r.ID] = true
	}

	var ids []string
	for id := range m.migrations {
		if !done[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Run executes all pending migrations. Each one runs in its own transaction
// together with its record.
func (m *Migrator) Run() error {
	ids, err := m.Pending()
	if err != nil {
		return err
	}

	for _, id := range ids {
		migration := m.migrations[id]
		logger.Info("Running migration", "id", id)
		err := m.db.Transaction(func(tx *gorm.DB) error {
			if err := migration.Up(tx); err != nil {
				return err
			}
			return tx.Create(&MigrationRecord{ID: id}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to run migration %s: %w", id, err)
		}
		logger.Info("Completed migration", "id", id)
	}
	return nil
}

// LoadSQL registers every .sql file under dir as an up-only migration named after the file
func (m *Migrator) LoadSQL(fsys fs.FS, dir string) error {
	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}
		id := strings.TrimSuffix(file.Name(), ".sql")
		content, err := fs.ReadFile(fsys, path.Join(dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file.Name(), err)
		}

		sql := string(content)
		m.Register(id, func(db *gorm.DB) error {
			return db.Exec(sql).Error
		}, nil)
	}
	return nil
}
