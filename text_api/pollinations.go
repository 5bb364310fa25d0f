package text_api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const DefaultPollinationsHost = "https://text.pollinations.ai"

// errorBodyLimit caps how much of a failed response is kept for logs.
const errorBodyLimit = 512

type pollinationsImpl struct {
	host       string
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

type Config struct {
	Host       string
	HTTPClient *http.Client
	Logger     *zap.SugaredLogger
}

func NewPollinations(cfg Config) (TextService, error) {
	if cfg.Host == "" {
		return nil, errors.New("missing host")
	}

	// remove trailing slash
	if cfg.Host[len(cfg.Host)-1:] == "/" {
		cfg.Host = cfg.Host[:len(cfg.Host)-1]
	}

	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	return &pollinationsImpl{
		host:       cfg.Host,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}, nil
}

func (api *pollinationsImpl) Name() string {
	return "pollinations"
}

// Complete sends the whole instruction as the path of a single GET request.
func (api *pollinationsImpl) Complete(ctx context.Context, instruction string) (string, error) {
	getURL := api.host + "/" + url.PathEscape(instruction)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, getURL, nil)
	if err != nil {
		return "", err
	}

	response, err := api.httpClient.Do(request)
	if err != nil {
		api.logger.Errorf("Error with text API request to %s: %v", api.host, err)

		return "", err
	}

	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(response.Body, errorBodyLimit))

		api.logger.Errorf("Unexpected text API status %d: %s", response.StatusCode, string(body))

		return "", NewStatusError(response.StatusCode, string(body))
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}
