package image_loader

import (
	"context"
	"errors"

	"prompt_evolver/image_api"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result is delivered to the callback of a load once the image resolves or fails.
type Result struct {
	Index int
	URL   string
	Data  []byte
	Err   error
}

// Loader runs fire-and-forget image loads. A load never blocks the caller and
// a failed load only affects its own callback. Loads stop when the context
// they were started with is cancelled.
type Loader struct {
	fetcher image_api.Fetcher
	logger  *zap.SugaredLogger
	group   errgroup.Group
}

type Config struct {
	Fetcher image_api.Fetcher
	Logger  *zap.SugaredLogger
}

func New(cfg Config) (*Loader, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("missing image fetcher")
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	return &Loader{
		fetcher: cfg.Fetcher,
		logger:  cfg.Logger,
	}, nil
}

// Load starts fetching imageURL in the background and calls done with the result.
func (l *Loader) Load(ctx context.Context, index int, imageURL string, done func(Result)) {
	l.group.Go(func() error {
		data, err := l.fetcher.FetchImage(ctx, imageURL)
		if err != nil {
			l.logger.Warnf("Image for stage %d failed to load: %v", index+1, err)
		} else {
			l.logger.Debugf("Image for stage %d loaded (%d bytes)", index+1, len(data))
		}

		if done != nil {
			done(Result{Index: index, URL: imageURL, Data: data, Err: err})
		}

		// Failures are reported through the callback, never to the group.
		return nil
	})
}

// Wait blocks until every started load has called its callback.
func (l *Loader) Wait() {
	_ = l.group.Wait()
}
