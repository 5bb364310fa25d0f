package sequential_renderer

import (
	"context"

	"prompt_evolver/entities"
)

// Sink is the presentation layer the renderer writes cards into. A sink owns
// image fetching and display. Insert must not wait for the image to load.
type Sink interface {
	Clear(ctx context.Context) error
	Insert(ctx context.Context, unit *entities.RenderUnit) error
}

// FailureReporter is implemented by sinks that can show the user-facing
// failure message.
type FailureReporter interface {
	ReportFailure(ctx context.Context, message string) error
}

type Renderer interface {
	RenderSequential(ctx context.Context, stages entities.StageSequence, sink Sink) error
}
