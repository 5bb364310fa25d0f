package evolution

import (
	"encoding/json"
	"strings"

	"prompt_evolver/entities"
)

// StageCount is the number of stages the instruction asks for and the most a
// parser will return.
const StageCount = 5

// ResponseParser recovers the stage list from a raw text service reply.
type ResponseParser interface {
	ParseStages(raw string) (entities.StageSequence, error)
}

// BracketSpanParser takes everything from the leftmost '[' to the rightmost ']'
// and decodes it as a JSON array. Nested or multiple arrays in surrounding
// prose can fool it.
type BracketSpanParser struct {
	MaxStages int
}

func NewBracketSpanParser() *BracketSpanParser {
	return &BracketSpanParser{MaxStages: StageCount}
}

func (p *BracketSpanParser) ParseStages(raw string) (entities.StageSequence, error) {
	span, ok := bracketSpan(raw)
	if !ok {
		return nil, NewParseError("no JSON array found in response", nil)
	}

	var values []any

	err := json.Unmarshal([]byte(span), &values)
	if err != nil {
		return nil, NewParseError("response array is not valid JSON", err)
	}

	limit := p.MaxStages
	if limit <= 0 {
		limit = StageCount
	}

	if len(values) > limit {
		values = values[:limit]
	}

	stages := make(entities.StageSequence, 0, len(values))
	for _, value := range values {
		stages = append(stages, coerceString(value))
	}

	return stages, nil
}

func bracketSpan(raw string) (string, bool) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")

	if start < 0 || end < start {
		return "", false
	}

	return raw[start : end+1], true
}

func coerceString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return "null"
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}

		return string(encoded)
	}
}
