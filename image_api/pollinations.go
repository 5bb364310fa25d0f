package image_api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"prompt_evolver/entities"
)

const (
	DefaultHost   = "https://image.pollinations.ai"
	DefaultModel  = "flux"
	DefaultWidth  = 512
	DefaultHeight = 512
)

// Client builds Pollinations image URLs and downloads the images behind them.
type Client struct {
	host       string
	model      string
	width      int
	height     int
	httpClient *http.Client
}

type Config struct {
	Host       string
	Model      string
	Width      int
	Height     int
	HTTPClient *http.Client
}

func New(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, errors.New("missing host")
	}

	// remove trailing slash
	if cfg.Host[len(cfg.Host)-1:] == "/" {
		cfg.Host = cfg.Host[:len(cfg.Host)-1]
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}

	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}

	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	return &Client{
		host:       cfg.Host,
		model:      cfg.Model,
		width:      cfg.Width,
		height:     cfg.Height,
		httpClient: cfg.HTTPClient,
	}, nil
}

func (api *Client) BuildRequest(stage string, seed int64) entities.ImageRequest {
	prompt := strings.TrimSpace(stage)

	query := fmt.Sprintf("model=%s&nologo=true&seed=%s&width=%s&height=%s",
		url.QueryEscape(api.model), strconv.FormatInt(seed, 10), strconv.Itoa(api.width), strconv.Itoa(api.height))

	return entities.ImageRequest{
		Prompt: prompt,
		Model:  api.model,
		Seed:   seed,
		Width:  api.width,
		Height: api.height,
		URL:    api.host + "/prompt/" + url.PathEscape(prompt) + "?" + query,
	}
}

func (api *Client) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}

	response, err := api.httpClient.Do(request)
	if err != nil {
		return nil, err
	}

	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, fmt.Errorf("image service returned status %d", response.StatusCode)
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	if mimeType := http.DetectContentType(data); !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("image service returned %s instead of an image", mimeType)
	}

	return data, nil
}
