// Package migrations holds the database schema and applies it with
// golang-migrate from files embedded into the binary.
package migrations

import (
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq" // registers the "postgres" database/sql driver
	pkgerrors "github.com/pkg/errors"
)

// NotifyChannel is the LISTEN channel the orders table trigger notifies with
// the changed order ID.
const NotifyChannel = "orders_changed"

//go:embed *.sql
var files embed.FS

// Up applies every pending migration. An up-to-date schema is not an error.
// dsn is a lib/pq connection string, either URL or key=value form.
func Up(dsn string) error {
	m, err := newMigrate(dsn)
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return pkgerrors.Wrap(err, "apply migrations")
	}
	return nil
}

// Down reverts the given number of migrations, or all of them when steps <= 0.
func Down(dsn string, steps int) error {
	m, err := newMigrate(dsn)
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	if steps <= 0 {
		err = m.Down()
	} else {
		err = m.Steps(-steps)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return pkgerrors.Wrap(err, "revert migrations")
	}
	return nil
}

// Version returns the current schema version and whether it is dirty.
func Version(dsn string) (uint, bool, error) {
	m, err := newMigrate(dsn)
	if err != nil {
		return 0, false, err
	}
	defer closeMigrate(m)

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, pkgerrors.Wrap(err, "read schema version")
}

// newMigrate opens a dedicated connection pool; closing the returned
// migrator closes it.
func newMigrate(dsn string) (*migrate.Migrate, error) {
	source, err := iofs.New(files, ".")
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open embedded migrations")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open database")
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return nil, pkgerrors.Wrap(err, "create migrate driver")
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "create migrator")
	}
	return m, nil
}

func closeMigrate(m *migrate.Migrate) {
	_, _ = m.Close()
}
