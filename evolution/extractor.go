package evolution

import (
	"context"
	"errors"
	"strings"

	"prompt_evolver/entities"
	"prompt_evolver/text_api"

	"go.uber.org/zap"
)

var ErrEmptyConcept = errors.New("concept is empty")

type Extractor interface {
	ExtractEvolution(ctx context.Context, concept string) (entities.StageSequence, error)
}

type extractorImpl struct {
	textService text_api.TextService
	parser      ResponseParser
	logger      *zap.SugaredLogger
}

type Config struct {
	TextService text_api.TextService
	// Parser defaults to a BracketSpanParser.
	Parser ResponseParser
	Logger *zap.SugaredLogger
}

func New(cfg Config) (Extractor, error) {
	if cfg.TextService == nil {
		return nil, errors.New("missing text service")
	}

	if cfg.Parser == nil {
		cfg.Parser = NewBracketSpanParser()
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	return &extractorImpl{
		textService: cfg.TextService,
		parser:      cfg.Parser,
		logger:      cfg.Logger,
	}, nil
}

// ExtractEvolution makes exactly one text service call and parses the reply.
func (e *extractorImpl) ExtractEvolution(ctx context.Context, concept string) (entities.StageSequence, error) {
	concept = strings.TrimSpace(concept)
	if concept == "" {
		return nil, ErrEmptyConcept
	}

	instruction := BuildInstruction(concept)

	raw, err := e.textService.Complete(ctx, instruction)
	if err != nil {
		return nil, NewServiceError(err)
	}

	e.logger.Debugf("Raw evolution response from %s: %q", e.textService.Name(), raw)

	stages, err := e.parser.ParseStages(raw)
	if err != nil {
		e.logger.Errorf("Unexpected evolution response from %s: %q", e.textService.Name(), raw)

		return nil, err
	}

	e.logger.Infof("Extracted %d stages for concept %q", len(stages), concept)

	return stages, nil
}
