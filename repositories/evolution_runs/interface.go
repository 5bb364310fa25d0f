package evolution_runs

import (
	"context"

	"prompt_evolver/entities"
)

type Repository interface {
	Create(ctx context.Context, run *entities.EvolutionRun) (*entities.EvolutionRun, error)
	GetByID(ctx context.Context, id int64) (*entities.EvolutionRun, error)
	ListRecent(ctx context.Context, limit int) ([]*entities.EvolutionRun, error)
}
