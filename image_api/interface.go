package image_api

import (
	"context"

	"prompt_evolver/entities"
)

// URLBuilder derives the image request for one stage. It performs no I/O.
type URLBuilder interface {
	BuildRequest(stage string, seed int64) entities.ImageRequest
}

// Fetcher downloads the bytes behind an image URL.
type Fetcher interface {
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)
}
