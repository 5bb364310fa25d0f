package evolution

import (
	"errors"
	"testing"

	"prompt_evolver/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBracketSpanParser(t *testing.T) {
	five := entities.StageSequence{"a cat", "a cat on a couch", "moody cat", "studio cat", "cinematic cat"}

	tests := []struct {
		name string
		raw  string
		want entities.StageSequence
	}{
		{
			name: "bare array",
			raw:  `["a cat","a cat on a couch","moody cat","studio cat","cinematic cat"]`,
			want: five,
		},
		{
			name: "leading and trailing prose",
			raw:  "Sure! Here you go:\n[\"a cat\",\n\"a cat on a couch\",\n\"moody cat\",\n\"studio cat\",\n\"cinematic cat\"]\nEnjoy!",
			want: five,
		},
		{
			name: "markdown fence",
			raw:  "```json\n[\"a cat\",\"a cat on a couch\",\"moody cat\",\"studio cat\",\"cinematic cat\"]\n```",
			want: five,
		},
		{
			name: "seven elements truncated to five",
			raw:  `["1","2","3","4","5","6","7"]`,
			want: entities.StageSequence{"1", "2", "3", "4", "5"},
		},
		{
			name: "three elements kept unpadded",
			raw:  `["1","2","3"]`,
			want: entities.StageSequence{"1", "2", "3"},
		},
		{
			name: "empty array",
			raw:  `[]`,
			want: entities.StageSequence{},
		},
		{
			name: "non string elements coerced",
			raw:  `["x", 42, true, null, {"k":"v"}]`,
			want: entities.StageSequence{"x", "42", "true", "null", `{"k":"v"}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewBracketSpanParser().ParseStages(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBracketSpanParserFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "no brackets", raw: "I cannot help with that."},
		{name: "only opening bracket", raw: "here [ it is"},
		{name: "closing before opening", raw: "] then ["},
		{name: "unbalanced quotes", raw: `["a cat, "dog"]`},
		{name: "two arrays joined by prose", raw: `["a"] and also ["b"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBracketSpanParser().ParseStages(tt.raw)
			require.Error(t, err)

			var parseErr *ParseError
			assert.True(t, errors.As(err, &parseErr))
			assert.True(t, errors.Is(err, &ParseError{}))
			assert.False(t, errors.Is(err, &ServiceError{}))
		})
	}
}

func TestBracketSpanParserCustomLimit(t *testing.T) {
	parser := &BracketSpanParser{MaxStages: 2}

	got, err := parser.ParseStages(`["1","2","3"]`)
	require.NoError(t, err)
	assert.Equal(t, entities.StageSequence{"1", "2"}, got)
}
