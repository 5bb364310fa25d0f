package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"prompt_evolver/entities"
	"prompt_evolver/png_info"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "a cat", truncate("a cat", 10))
	assert.Equal(t, "a fluff...", truncate("a fluffy cat at dusk", 10))
	assert.Equal(t, "two lines", truncate("two\nlines", 20))
}

func TestPrintHistory(t *testing.T) {
	out := new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetOut(out)

	err := printHistory(cmd, []*entities.EvolutionRun{
		{
			ID:        2,
			Concept:   "a cat",
			Stages:    entities.StageSequence{"a cat", "a fluffy cat"},
			Status:    entities.RunStatusSucceeded,
			Backend:   "pollinations",
			CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			ID:          1,
			Concept:     "a dog",
			Status:      entities.RunStatusFailed,
			FailureKind: entities.FailureKindParse,
			Backend:     "pollinations",
			CreatedAt:   time.Date(2024, 1, 1, 3, 4, 5, 0, time.UTC),
		},
	})
	require.NoError(t, err)

	printed := out.String()
	assert.Contains(t, printed, "FINAL STAGE")
	assert.Contains(t, printed, "a fluffy cat")
	assert.Contains(t, printed, "failed (parse)")
}

func TestNewTextServiceDefaultsPollinationsHost(t *testing.T) {
	textBackend, textHost = backendPollinations, ""

	service, err := newTextService(t.Context(), zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, "pollinations", service.Name())
}

func TestInspectSheet(t *testing.T) {
	img := new(bytes.Buffer)
	require.NoError(t, png.Encode(img, image.NewRGBA(image.Rect(0, 0, 2, 2))))

	sheet, err := png_info.EmbedStages(img.Bytes(), "a cat", []png_info.Stage{
		{Number: 1, Text: "a cat"},
		{Number: 3, Text: "a cinematic cat"},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "evolution.png")
	require.NoError(t, os.WriteFile(path, sheet, 0o644))

	out := new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetOut(out)

	require.NoError(t, inspectSheet(cmd, []string{path}))
	assert.Equal(t, "Concept: a cat\nStage 1: a cat\nStage 3: a cinematic cat\n", out.String())

	out.Reset()
	require.NoError(t, printStageInfo(out, &png_info.StageInfo{}))
	assert.Equal(t, "No evolution stages embedded.\n", out.String())
}

func TestNewTextServiceRejectsUnknownBackend(t *testing.T) {
	textBackend = "carrier-pigeon"
	defer func() { textBackend = backendPollinations }()

	_, err := newTextService(t.Context(), nil)
	assert.Error(t, err)
}
