package image_api

import (
	"net/http"
	"strings"
)

// Extension guesses the file extension of fetched image bytes.
func Extension(data []byte) string {
	switch mimeType := http.DetectContentType(data); {
	case strings.HasSuffix(mimeType, "png"):
		return ".png"
	case strings.HasSuffix(mimeType, "gif"):
		return ".gif"
	case strings.HasSuffix(mimeType, "webp"):
		return ".webp"
	default:
		return ".jpg"
	}
}
