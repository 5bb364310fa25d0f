package evolve_queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"prompt_evolver/clock"
	"prompt_evolver/evolution_pipeline"
	"prompt_evolver/image_api"
	"prompt_evolver/image_loader"
	"prompt_evolver/text_escape"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	defaultQueueSize    = 100
	defaultPollInterval = 1 * time.Second
)

var ErrQueueFull = errors.New("evolve queue is full")

type queueImpl struct {
	pipeline     evolution_pipeline.Pipeline
	fetcher      image_api.Fetcher
	clock        clock.Clock
	pollInterval time.Duration
	logger       *zap.SugaredLogger

	messenger     Messenger
	queue         chan *QueueItem
	currentEvolve *QueueItem
	mu            sync.Mutex
	wg            sync.WaitGroup
}

type Config struct {
	Pipeline     evolution_pipeline.Pipeline
	Fetcher      image_api.Fetcher
	Clock        clock.Clock
	QueueSize    int
	PollInterval time.Duration
	Logger       *zap.SugaredLogger
}

func New(cfg Config) (Queue, error) {
	if cfg.Pipeline == nil {
		return nil, errors.New("missing evolution pipeline")
	}

	if cfg.Fetcher == nil {
		return nil, errors.New("missing image fetcher")
	}

	if cfg.Clock == nil {
		cfg.Clock = clock.NewClock()
	}

	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	return &queueImpl{
		pipeline:     cfg.Pipeline,
		fetcher:      cfg.Fetcher,
		clock:        cfg.Clock,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
		queue:        make(chan *QueueItem, cfg.QueueSize),
	}, nil
}

func (q *queueImpl) AddEvolve(item *QueueItem) (int, error) {
	select {
	case q.queue <- item:
	default:
		return 0, ErrQueueFull
	}

	linePosition := len(q.queue)

	return linePosition, nil
}

// StartPolling processes queued evolutions one at a time until ctx is done.
// On return the pipeline is closed and every started run has finished.
func (q *queueImpl) StartPolling(ctx context.Context, messenger Messenger) {
	q.messenger = messenger

	q.logger.Infof("Polling for evolutions...")

	for {
		select {
		case <-ctx.Done():
			q.pipeline.Close()
			q.wg.Wait()

			q.logger.Infof("Polling stopped...")

			return
		case <-q.clock.After(q.pollInterval):
			q.pullNextInQueue(ctx)
		}
	}
}

func (q *queueImpl) pullNextInQueue(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.currentEvolve != nil {
		return
	}

	select {
	case element := <-q.queue:
		q.currentEvolve = element
	default:
		return
	}

	q.wg.Add(1)

	go func(item *QueueItem) {
		defer q.wg.Done()

		defer func() {
			q.mu.Lock()
			defer q.mu.Unlock()

			q.currentEvolve = nil
		}()

		q.processEvolve(ctx, item)
	}(q.currentEvolve)
}

// InteractionUserID returns the ID of the user behind an interaction, from
// the guild member or, in DMs, the user.
func InteractionUserID(interaction *discordgo.Interaction) string {
	if interaction == nil {
		return ""
	}

	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User.ID
	}

	if interaction.User != nil {
		return interaction.User.ID
	}

	return ""
}

func evolveMessageContent(userID, concept string, stageCount int, done bool) string {
	concept = text_escape.Markdown.Escape(concept)

	if !done {
		return fmt.Sprintf("<@%s> asked me to evolve \"%s\". Growing it now...", userID, concept)
	}

	return fmt.Sprintf("<@%s> asked me to evolve \"%s\", here is how it grew in %d stages.", userID, concept, stageCount)
}

func (q *queueImpl) processEvolve(ctx context.Context, item *QueueItem) {
	interaction := item.DiscordInteraction
	userID := InteractionUserID(interaction)

	q.logger.Infof("Processing evolve #%s: %v", interaction.ID, item.Concept)

	err := q.messenger.EditResponse(interaction, evolveMessageContent(userID, item.Concept, 0, false))
	if err != nil {
		q.logger.Errorf("Error editing interaction: %v", err)
	}

	loader, err := image_loader.New(image_loader.Config{Fetcher: q.fetcher, Logger: q.logger})
	if err != nil {
		q.logger.Errorf("Error creating image loader: %v", err)

		return
	}

	sink, err := NewDiscordSink(DiscordSinkConfig{
		Messenger:   q.messenger,
		ChannelID:   interaction.ChannelID,
		Interaction: interaction,
		Loader:      loader,
		Logger:      q.logger,
	})
	if err != nil {
		q.logger.Errorf("Error creating Discord sink: %v", err)

		return
	}

	stages, err := q.pipeline.Run(ctx, item.Concept, sink)
	if err != nil {
		// the sink already showed the failure to the user
		q.logger.Errorf("Error evolving #%s: %v", interaction.ID, err)

		return
	}

	// the next run starts once this run's images have settled
	loader.Wait()

	err = q.messenger.EditResponse(interaction, evolveMessageContent(userID, item.Concept, len(stages), true))
	if err != nil {
		q.logger.Errorf("Error editing interaction: %v", err)
	}
}
