package entities

// StageSequence is the ordered list of evolved prompts for one concept.
// Index i always maps to render slot i.
type StageSequence []string

type ImageRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
	Seed   int64  `json:"seed"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

// RenderUnit is one card handed to a sink. It is never mutated after the
// renderer creates it.
type RenderUnit struct {
	Index int          `json:"index"`
	Title string       `json:"title"`
	Text  string       `json:"text"`
	Stage string       `json:"stage"`
	Image ImageRequest `json:"image"`
}
