package text_api

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

type geminiImpl struct {
	client *genai.Client
	model  string
	logger *zap.SugaredLogger
}

type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the Gemini API endpoint. Empty uses the SDK default.
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.SugaredLogger
}

// stageListSchema asks the model for a bare array of strings, which the
// bracket-span parser accepts unchanged.
var stageListSchema = &genai.Schema{
	Type:  genai.TypeArray,
	Items: &genai.Schema{Type: genai.TypeString},
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (TextService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("missing gemini API key")
	}

	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}

	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, err
	}

	return &geminiImpl{
		client: client,
		model:  cfg.Model,
		logger: cfg.Logger,
	}, nil
}

func (g *geminiImpl) Name() string {
	return "gemini:" + g.model
}

func (g *geminiImpl) Complete(ctx context.Context, instruction string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(instruction),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   stageListSchema,
		},
	)
	if err != nil {
		g.logger.Errorf("Error with Gemini request (model %s): %v", g.model, err)

		return "", err
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini returned no candidates")
	}

	return resp.Text(), nil
}
