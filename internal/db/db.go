package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gil9red/telegram--farguscovers-bot/internal/catalog"
)

// Open connects to the catalog SQLite file and migrates the schema.
//
// WAL keeps readers unblocked while a single writer holds the file lock;
// busy_timeout bounds how long a queued write may wait before the call
// fails with SQLITE_BUSY, which surfaces to the handler as an error.
func Open(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf(
		"%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		path,
	)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}

func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&catalog.GameSeries{},
		&catalog.Game{},
		&catalog.Cover{},
		&catalog.Author{},
		&catalog.AuthorCover{},
		&catalog.TgUser{},
		&catalog.TgChat{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	// The sentinel "no series" row keeps Game→GameSeries total. Inserted with
	// raw SQL because gorm treats a zero primary key as unset.
	if err := gdb.Exec(
		"INSERT OR IGNORE INTO game_series (id, name, slug) VALUES (0, ?, ?)",
		catalog.UnknownSeriesName, catalog.Slug(catalog.UnknownSeriesName),
	).Error; err != nil {
		return fmt.Errorf("seed sentinel series: %w", err)
	}
	return nil
}
