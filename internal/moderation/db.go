package moderation

import (
	"database/sql"
	"fmt"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	// modernc pure-Go SQLite driver, registered as "sqlite" — no CGO
	// required, the same choice the teacher makes for its own database.
	_ "modernc.org/sqlite"
)

// Open connects to a SQLite database at dsn and returns a ready-to-use
// *gorm.DB. A single max-open-connection is enforced because SQLite
// supports only one writer at a time.
func Open(dsn string) (*gorm.DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("moderation: open sqlite: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	db, err := gorm.Open(gormsqlite.Dialector{Conn: sqlDB}, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("moderation: init gorm: %w", err)
	}
	return db, nil
}
