package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"uti-assess/internal/config"
	"uti-assess/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed migrations/oracle/*.sql migrations/sqlite/*.sql
var migrationFS embed.FS

const oracleMigrationsTable = "schema_migrations"

// RunMigrations applies every pending up migration for the connection's driver.
func RunMigrations(ctx context.Context, db *sqlx.DB, driver string) error {
	switch driver {
	case config.DriverSQLite:
		return migrateSQLite(db)
	case config.DriverOracle:
		return migrateOracle(ctx, db)
	default:
		return fmt.Errorf("no migrations for driver %q", driver)
	}
}

func migrateSQLite(db *sqlx.DB) error {
	src, err := iofs.New(migrationFS, "migrations/sqlite")
	if err != nil {
		return fmt.Errorf("sqlite: open migration source: %w", err)
	}
	target, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlite: create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", target)
	if err != nil {
		return fmt.Errorf("sqlite: create migrator: %w", err)
	}
	// m.Close would close the shared connection pool, so only the source is released.
	defer src.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlite: run migrations up: %w", err)
	}
	logger.Get().Info("sqlite migrations applied")
	return nil
}

// migrateOracle runs the embedded Oracle scripts statement by statement and records each
// applied file in schema_migrations. go-ora executes a single statement per call.
func migrateOracle(ctx context.Context, db *sqlx.DB) error {
	if err := ensureOracleMigrationsTable(ctx, db); err != nil {
		return err
	}

	files, err := upFiles("migrations/oracle")
	if err != nil {
		return err
	}

	for _, fname := range files {
		version := strings.TrimSuffix(fname, ".up.sql")

		var count int
		if err := db.GetContext(ctx, &count,
			db.Rebind(`SELECT COUNT(1) FROM `+oracleMigrationsTable+` WHERE version = ?`), version); err != nil {
			return fmt.Errorf("check migration %s: %w", version, err)
		}
		if count > 0 {
			continue
		}

		b, err := fs.ReadFile(migrationFS, path.Join("migrations/oracle", fname))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", fname, err)
		}
		for _, stmt := range SplitStatements(string(b)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("exec migration %s: %w", fname, err)
			}
		}

		if _, err := db.ExecContext(ctx,
			db.Rebind(`INSERT INTO `+oracleMigrationsTable+` (version) VALUES (?)`), version); err != nil {
			return fmt.Errorf("record migration %s: %w", fname, err)
		}
		logger.Get().Info("Executed migration", zap.String("version", version))
	}
	return nil
}

func ensureOracleMigrationsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE `+oracleMigrationsTable+` (
		version VARCHAR2(255) PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT SYSTIMESTAMP NOT NULL
	)`)
	// ORA-00955: name is already used by an existing object
	if err != nil && !strings.Contains(err.Error(), "ORA-00955") {
		return fmt.Errorf("ensure %s: %w", oracleMigrationsTable, err)
	}
	return nil
}

func upFiles(dir string) ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// SplitStatements splits a script on ";" line endings and drops "--" comment lines.
func SplitStatements(script string) []string {
	var (
		stmts   []string
		current strings.Builder
	)
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		if strings.HasSuffix(trimmed, ";") {
			current.WriteString(strings.TrimSuffix(trimmed, ";"))
			stmts = append(stmts, current.String())
			current.Reset()
			continue
		}
		current.WriteString(trimmed)
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		stmts = append(stmts, rest)
	}
	return stmts
}
