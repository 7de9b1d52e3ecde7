package internal

import (
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

func setupGoose() error {
	goose.SetBaseFS(migrations)
	return goose.SetDialect("postgres")
}

func RunMigrations(db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}

	return goose.Up(db, "migrations")
}

// MigrationStatus prints applied and pending migrations through goose's logger.
func MigrationStatus(db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}

	return goose.Status(db, "migrations")
}

// MigrationVersion returns the current schema version.
func MigrationVersion(db *sql.DB) (int64, error) {
	if err := setupGoose(); err != nil {
		return 0, err
	}

	return goose.GetDBVersion(db)
}
