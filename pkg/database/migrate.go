package database

import (
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migrator applies the embedded goose migrations against PostgreSQL.
type Migrator struct {
	db  *sqlx.DB
	fs  fs.FS
	dir string
}

// NewMigrator binds a database handle to a migration filesystem. dir is the path inside fsys.
func NewMigrator(db *sqlx.DB, fsys fs.FS, dir string, logger *zap.Logger) *Migrator {
	if dir == "" {
		dir = "."
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	goose.SetLogger(gooseLogger{l: logger.Sugar().With("component", "migrate")})
	return &Migrator{db: db, fs: fsys, dir: dir}
}

// Up applies all pending migrations.
func (m *Migrator) Up() error {
	return m.run(func() error { return goose.Up(m.db.DB, m.dir) })
}

// Down rolls back the latest migration.
func (m *Migrator) Down() error {
	return m.run(func() error { return goose.Down(m.db.DB, m.dir) })
}

// Status prints the state of every migration through the logger.
func (m *Migrator) Status() error {
	return m.run(func() error { return goose.Status(m.db.DB, m.dir) })
}

// Version returns the current schema version.
func (m *Migrator) Version() (int64, error) {
	var version int64
	err := m.run(func() error {
		v, err := goose.GetDBVersion(m.db.DB)
		version = v
		return err
	})
	return version, err
}

func (m *Migrator) run(fn func() error) error {
	goose.SetBaseFS(m.fs)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := fn(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

type gooseLogger struct {
	l *zap.SugaredLogger
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) { g.l.Errorf(format, v...) }
func (g gooseLogger) Printf(format string, v ...interface{}) { g.l.Infof(format, v...) }
