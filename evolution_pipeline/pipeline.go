package evolution_pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"

	"prompt_evolver/entities"
	"prompt_evolver/evolution"
	"prompt_evolver/sequential_renderer"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FailureMessage is the only failure text users see. Service and parse
// failures share it.
const FailureMessage = "Failed to evolve the prompt. The AI might be busy. Please try again."

var ErrBusy = errors.New("an evolution is already running")

type pipelineImpl struct {
	extractor evolution.Extractor
	renderer  sequential_renderer.Renderer
	recorder  RunRecorder
	backend   string
	logger    *zap.SugaredLogger

	mu          sync.Mutex
	running     bool
	cancelLoads context.CancelFunc
}

type Config struct {
	Extractor evolution.Extractor
	Renderer  sequential_renderer.Renderer
	// Recorder is optional. A nil recorder keeps no history.
	Recorder RunRecorder
	// Backend names the text service in recorded runs.
	Backend string
	Logger  *zap.SugaredLogger
}

func New(cfg Config) (Pipeline, error) {
	if cfg.Extractor == nil {
		return nil, errors.New("missing extractor")
	}

	if cfg.Renderer == nil {
		return nil, errors.New("missing renderer")
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	return &pipelineImpl{
		extractor: cfg.Extractor,
		renderer:  cfg.Renderer,
		recorder:  cfg.Recorder,
		backend:   cfg.Backend,
		logger:    cfg.Logger,
	}, nil
}

// begin claims the pipeline and returns the context for this run's image
// loads. Starting a run cancels whatever the previous run left loading.
func (p *pipelineImpl) begin(ctx context.Context) (context.Context, context.CancelFunc, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil, nil, ErrBusy
	}

	p.running = true

	if p.cancelLoads != nil {
		p.cancelLoads()
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancelLoads = cancel

	return runCtx, cancel, nil
}

func (p *pipelineImpl) end() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.running = false
}

// Run clears the sink, extracts the stages and renders them in order. The
// image loads started by the sink keep running after Run returns, until the
// next run or Close.
func (p *pipelineImpl) Run(ctx context.Context, concept string, sink sequential_renderer.Sink) (entities.StageSequence, error) {
	concept = strings.TrimSpace(concept)
	if concept == "" {
		return nil, evolution.ErrEmptyConcept
	}

	if sink == nil {
		return nil, errors.New("missing sink")
	}

	runCtx, cancel, err := p.begin(ctx)
	if err != nil {
		return nil, err
	}

	defer p.end()

	// A caller cancelling mid-run stops the run and its loads. Once Run
	// returns, the loads no longer depend on the caller.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	logger := p.logger.With("run_id", uuid.NewString())
	logger.Infof("Evolving concept %q", concept)

	stages, err := p.execute(runCtx, concept, sink)

	p.record(ctx, logger, concept, stages, err)

	if err != nil {
		logger.Errorf("Evolution of %q failed (%s): %v", concept, failureKind(err), err)

		if reporter, ok := sink.(sequential_renderer.FailureReporter); ok {
			reportErr := reporter.ReportFailure(runCtx, FailureMessage)
			if reportErr != nil {
				logger.Errorf("Error reporting failure to sink: %v", reportErr)
			}
		}

		return nil, err
	}

	logger.Infof("Rendered %d stages for %q", len(stages), concept)

	return stages, nil
}

func (p *pipelineImpl) execute(ctx context.Context, concept string, sink sequential_renderer.Sink) (entities.StageSequence, error) {
	err := sink.Clear(ctx)
	if err != nil {
		return nil, err
	}

	stages, err := p.extractor.ExtractEvolution(ctx, concept)
	if err != nil {
		return nil, err
	}

	err = p.renderer.RenderSequential(ctx, stages, sink)
	if err != nil {
		return stages, err
	}

	return stages, nil
}

func (p *pipelineImpl) record(ctx context.Context, logger *zap.SugaredLogger, concept string, stages entities.StageSequence, runErr error) {
	if p.recorder == nil {
		return
	}

	run := &entities.EvolutionRun{
		Concept:     concept,
		Stages:      stages,
		Status:      entities.RunStatusSucceeded,
		FailureKind: failureKind(runErr),
		Backend:     p.backend,
	}

	if runErr != nil {
		run.Status = entities.RunStatusFailed
	}

	_, err := p.recorder.Create(context.WithoutCancel(ctx), run)
	if err != nil {
		logger.Errorf("Error recording evolution run: %v", err)
	}
}

// Close cancels any image loads still running from the last run.
func (p *pipelineImpl) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancelLoads != nil {
		p.cancelLoads()
		p.cancelLoads = nil
	}
}

func failureKind(err error) entities.FailureKind {
	switch {
	case err == nil:
		return entities.FailureKindNone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return entities.FailureKindCancelled
	case errors.Is(err, &evolution.ServiceError{}):
		return entities.FailureKindService
	case errors.Is(err, &evolution.ParseError{}):
		return entities.FailureKindParse
	default:
		return entities.FailureKindSink
	}
}
