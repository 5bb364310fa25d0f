package evolution_pipeline

import (
	"context"

	"prompt_evolver/entities"
	"prompt_evolver/sequential_renderer"
)

type Pipeline interface {
	Run(ctx context.Context, concept string, sink sequential_renderer.Sink) (entities.StageSequence, error)
	Close()
}

// RunRecorder stores a summary of each finished run.
type RunRecorder interface {
	Create(ctx context.Context, run *entities.EvolutionRun) (*entities.EvolutionRun, error)
}
