package sequential_renderer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prompt_evolver/clock"
	"prompt_evolver/entities"
	"prompt_evolver/image_api"
	"prompt_evolver/text_escape"

	"go.uber.org/zap"
)

// DefaultStageDelay paces outgoing image requests, not image completion.
const DefaultStageDelay = 900 * time.Millisecond

var DefaultTitles = []string{
	"Step 1: The Raw Idea",
	"Step 2: Adding Detail",
	"Step 3: Defining Style",
	"Step 4: Professional Polish",
	"Step 5: Cinematic Masterpiece",
}

type rendererImpl struct {
	images  image_api.URLBuilder
	clock   clock.Clock
	delay   time.Duration
	titles  []string
	escaper text_escape.Escaper
	logger  *zap.SugaredLogger
}

type Config struct {
	Images  image_api.URLBuilder
	Clock   clock.Clock
	Delay   time.Duration
	Titles  []string
	Escaper text_escape.Escaper
	Logger  *zap.SugaredLogger
}

func New(cfg Config) (Renderer, error) {
	if cfg.Images == nil {
		return nil, errors.New("missing image URL builder")
	}

	if cfg.Clock == nil {
		cfg.Clock = clock.NewClock()
	}

	if cfg.Delay <= 0 {
		cfg.Delay = DefaultStageDelay
	}

	if cfg.Titles == nil {
		cfg.Titles = DefaultTitles
	}

	if cfg.Escaper == nil {
		cfg.Escaper = text_escape.HTML
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	return &rendererImpl{
		images:  cfg.Images,
		clock:   cfg.Clock,
		delay:   cfg.Delay,
		titles:  cfg.Titles,
		escaper: cfg.Escaper,
		logger:  cfg.Logger,
	}, nil
}

func (r *rendererImpl) title(index int) string {
	if index < len(r.titles) {
		return r.titles[index]
	}

	return fmt.Sprintf("Step %d", index+1)
}

// RenderSequential inserts one unit per stage in index order and waits the
// stage delay between insertions. Only sink errors and context cancellation
// stop it early.
func (r *rendererImpl) RenderSequential(ctx context.Context, stages entities.StageSequence, sink Sink) error {
	if sink == nil {
		return errors.New("missing sink")
	}

	err := sink.Clear(ctx)
	if err != nil {
		return fmt.Errorf("clearing sink: %w", err)
	}

	for index, stage := range stages {
		seed := r.clock.Now().UnixMilli() + int64(index)

		unit := &entities.RenderUnit{
			Index: index,
			Title: r.title(index),
			Text:  r.escaper.Escape(stage),
			Stage: stage,
			Image: r.images.BuildRequest(stage, seed),
		}

		r.logger.Debugf("Inserting stage %d/%d with seed %d", index+1, len(stages), seed)

		err = sink.Insert(ctx, unit)
		if err != nil {
			return fmt.Errorf("inserting stage %d: %w", index+1, err)
		}

		if index == len(stages)-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.clock.After(r.delay):
		}
	}

	return nil
}
