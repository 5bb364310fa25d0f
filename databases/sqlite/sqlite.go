package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const dbFile string = "prompt_evolver.sqlite"

const getCurrentMigration string = `PRAGMA user_version;`
const setCurrentMigration string = `PRAGMA user_version = ?;`

const createRunTableIfNotExistsQuery string = `
CREATE TABLE IF NOT EXISTS evolution_runs (
id INTEGER NOT NULL PRIMARY KEY,
concept TEXT NOT NULL,
stages TEXT NOT NULL,
status TEXT NOT NULL,
created_at DATETIME NOT NULL
);`

const createRunCreatedIndexIfNotExistsQuery string = `
CREATE INDEX IF NOT EXISTS evolution_run_created_index
ON evolution_runs(created_at);
`

const addRunFailureColumnsQuery string = `
ALTER TABLE evolution_runs ADD COLUMN failure_kind TEXT NOT NULL DEFAULT '';
ALTER TABLE evolution_runs ADD COLUMN backend TEXT NOT NULL DEFAULT '';
`

type migration struct {
	migrationName  string
	migrationQuery string
}

var migrations = []migration{
	{migrationName: "create evolution run table", migrationQuery: createRunTableIfNotExistsQuery},
	{migrationName: "add evolution run created index", migrationQuery: createRunCreatedIndexIfNotExistsQuery},
	{migrationName: "add evolution run failure columns", migrationQuery: addRunFailureColumnsQuery},
}

type Config struct {
	// Filename defaults to DBFilename().
	Filename string
	Logger   *zap.SugaredLogger
}

func New(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	filename := cfg.Filename
	if filename == "" {
		var err error

		filename, err = DBFilename()
		if err != nil {
			return nil, err
		}
	}

	err := touchDBFile(filename)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, err
	}

	err = migrate(ctx, db, cfg.Logger)
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	return db, nil
}

func migrate(ctx context.Context, db *sql.DB, logger *zap.SugaredLogger) error {
	var currentMigration int

	row := db.QueryRowContext(ctx, getCurrentMigration)

	err := row.Scan(&currentMigration)
	if err != nil {
		return err
	}

	requiredMigration := len(migrations)

	logger.Infof("Current DB version: %v, required DB version: %v", currentMigration, requiredMigration)

	if currentMigration < requiredMigration {
		for migrationNum := currentMigration + 1; migrationNum <= requiredMigration; migrationNum++ {
			err = execMigration(ctx, db, migrationNum, logger)
			if err != nil {
				logger.Errorf("Error running migration %v '%v'", migrationNum, migrations[migrationNum-1].migrationName)

				return err
			}
		}
	}

	return nil
}

func execMigration(ctx context.Context, db *sql.DB, migrationNum int, logger *zap.SugaredLogger) error {
	logger.Infof("Running migration %v '%v'", migrationNum, migrations[migrationNum-1].migrationName)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	//nolint
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, migrations[migrationNum-1].migrationQuery)
	if err != nil {
		return err
	}

	setQuery := strings.Replace(setCurrentMigration, "?", strconv.Itoa(migrationNum), 1)

	_, err = tx.ExecContext(ctx, setQuery)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func DBFilename() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, dbFile), nil
}

func touchDBFile(filename string) error {
	_, err := os.Stat(filename)
	if os.IsNotExist(err) {
		file, createErr := os.Create(filename)
		if createErr != nil {
			return createErr
		}

		closeErr := file.Close()
		if closeErr != nil {
			return closeErr
		}
	}

	return nil
}
