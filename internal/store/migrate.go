// internal/store/migrate.go
//
// Embedded goose migrations.

package store

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordscramble/assets"
)

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

// Migrate applies the embedded migrations for dialect ("sqlite3" or "postgres").
func Migrate(db *sql.DB, dialect string) error {
	fsys, err := assets.MigrationsFor(dialect)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migrations: set dialect: %w", err)
	}
	log.Info().Str("dialect", dialect).Msg("running database migrations")
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("migrations: goose up: %w", err)
	}
	log.Info().Str("dialect", dialect).Msg("database migrations applied")
	return nil
}
