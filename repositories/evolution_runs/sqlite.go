package evolution_runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"prompt_evolver/clock"
	"prompt_evolver/entities"
	"prompt_evolver/repositories"
)

const insertRunQuery string = `
INSERT INTO evolution_runs (concept, stages, status, failure_kind, backend, created_at) VALUES (?, ?, ?, ?, ?, ?);
`

const getRunByIDQuery string = `
SELECT id, concept, stages, status, failure_kind, backend, created_at FROM evolution_runs WHERE id = ?;
`

const listRecentRunsQuery string = `
SELECT id, concept, stages, status, failure_kind, backend, created_at FROM evolution_runs ORDER BY created_at DESC, id DESC LIMIT ?;
`

const defaultListLimit = 20

type sqliteRepo struct {
	dbConn *sql.DB
	clock  clock.Clock
}

type Config struct {
	DB    *sql.DB
	Clock clock.Clock
}

func NewRepository(cfg *Config) (Repository, error) {
	if cfg.DB == nil {
		return nil, errors.New("missing DB parameter")
	}

	if cfg.Clock == nil {
		cfg.Clock = clock.NewClock()
	}

	newRepo := &sqliteRepo{
		dbConn: cfg.DB,
		clock:  cfg.Clock,
	}

	return newRepo, nil
}

func (repo *sqliteRepo) Create(ctx context.Context, run *entities.EvolutionRun) (*entities.EvolutionRun, error) {
	run.CreatedAt = repo.clock.Now().UTC()

	stages := run.Stages
	if stages == nil {
		stages = entities.StageSequence{}
	}

	stagesJSON, err := json.Marshal(stages)
	if err != nil {
		return nil, err
	}

	res, err := repo.dbConn.ExecContext(ctx, insertRunQuery,
		run.Concept, string(stagesJSON), string(run.Status), string(run.FailureKind), run.Backend,
		run.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, err
	}

	lastID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	run.ID = lastID

	return run, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*entities.EvolutionRun, error) {
	var run entities.EvolutionRun
	var stagesJSON, status, failureKind, createdAt string

	err := row.Scan(&run.ID, &run.Concept, &stagesJSON, &status, &failureKind, &run.Backend, &createdAt)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal([]byte(stagesJSON), &run.Stages)
	if err != nil {
		return nil, fmt.Errorf("decoding stages of run %d: %w", run.ID, err)
	}

	run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("decoding created_at of run %d: %w", run.ID, err)
	}

	run.Status = entities.RunStatus(status)
	run.FailureKind = entities.FailureKind(failureKind)

	return &run, nil
}

func (repo *sqliteRepo) GetByID(ctx context.Context, id int64) (*entities.EvolutionRun, error) {
	run, err := scanRun(repo.dbConn.QueryRowContext(ctx, getRunByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.NewNotFoundError("evolution run", id)
		}

		return nil, err
	}

	return run, nil
}

func (repo *sqliteRepo) ListRecent(ctx context.Context, limit int) ([]*entities.EvolutionRun, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := repo.dbConn.QueryContext(ctx, listRecentRunsQuery, limit)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	runs := make([]*entities.EvolutionRun, 0)

	for rows.Next() {
		run, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}
