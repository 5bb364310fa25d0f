package sequential_renderer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"testing"
	"time"

	"prompt_evolver/clock"
	"prompt_evolver/entities"
	"prompt_evolver/image_api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	clock      clock.Clock
	clears     int
	units      []*entities.RenderUnit
	insertedAt []time.Time
	failAt     int
}

func (s *recordingSink) Clear(ctx context.Context) error {
	s.clears++
	s.units = nil
	s.insertedAt = nil

	return nil
}

func (s *recordingSink) Insert(ctx context.Context, unit *entities.RenderUnit) error {
	if s.failAt > 0 && len(s.units)+1 == s.failAt {
		return errors.New("sink is gone")
	}

	s.units = append(s.units, unit)
	s.insertedAt = append(s.insertedAt, s.clock.Now())

	return nil
}

// frozenClock never moves but still fires After immediately.
type frozenClock struct {
	now time.Time
}

func (c frozenClock) Now() time.Time {
	return c.now
}

func (c frozenClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.now

	return ch
}

func newTestRenderer(t *testing.T, c clock.Clock) Renderer {
	t.Helper()

	images, err := image_api.New(image_api.Config{Host: image_api.DefaultHost})
	require.NoError(t, err)

	renderer, err := New(Config{Images: images, Clock: c})
	require.NoError(t, err)

	return renderer
}

var catStages = entities.StageSequence{
	"a cat",
	"a cat sitting on a red couch",
	"a fluffy cat, moody lighting, painterly",
	"professional photo of a cat, studio lighting, 85mm lens",
	"cinematic masterpiece of a regal cat, volumetric light, 8k",
}

func TestRenderSequentialInsertsInOrderWithDelay(t *testing.T) {
	c := clock.NewFakeClock(time.UnixMilli(1_700_000_000_000))
	sink := &recordingSink{clock: c}

	err := newTestRenderer(t, c).RenderSequential(context.Background(), catStages, sink)
	require.NoError(t, err)

	require.Len(t, sink.units, 5)
	assert.Equal(t, 1, sink.clears)

	for i, unit := range sink.units {
		assert.Equal(t, i, unit.Index)
		assert.Equal(t, DefaultTitles[i], unit.Title)
		assert.Equal(t, catStages[i], unit.Stage)
		assert.Equal(t, html.EscapeString(catStages[i]), unit.Text)
		assert.Equal(t, catStages[i], unit.Image.Prompt)
		assert.Equal(t, 512, unit.Image.Width)
		assert.Equal(t, "flux", unit.Image.Model)
	}

	for i := 1; i < len(sink.insertedAt); i++ {
		assert.GreaterOrEqual(t, sink.insertedAt[i].Sub(sink.insertedAt[i-1]), DefaultStageDelay)
	}

	assert.Len(t, c.Waits(), 4)
}

func TestRenderSequentialSeedsAreDistinct(t *testing.T) {
	c := frozenClock{now: time.UnixMilli(1_700_000_000_000)}
	sink := &recordingSink{clock: c}

	err := newTestRenderer(t, c).RenderSequential(context.Background(), catStages, sink)
	require.NoError(t, err)

	seen := map[int64]bool{}
	for i, unit := range sink.units {
		assert.Equal(t, int64(1_700_000_000_000+i), unit.Image.Seed)
		assert.False(t, seen[unit.Image.Seed], "duplicate seed %d", unit.Image.Seed)
		seen[unit.Image.Seed] = true
		assert.Contains(t, unit.Image.URL, fmt.Sprintf("seed=%d", unit.Image.Seed))
	}
}

func TestRenderSequentialEscapesMarkup(t *testing.T) {
	c := clock.NewFakeClock(time.UnixMilli(0))
	sink := &recordingSink{clock: c}

	stages := entities.StageSequence{`<script>alert("x")</script> cat`}

	err := newTestRenderer(t, c).RenderSequential(context.Background(), stages, sink)
	require.NoError(t, err)

	require.Len(t, sink.units, 1)
	assert.NotContains(t, sink.units[0].Text, "<script>")
	assert.Equal(t, stages[0], html.UnescapeString(sink.units[0].Text))
	assert.Empty(t, c.Waits())
}

func TestRenderSequentialTitleFallback(t *testing.T) {
	c := clock.NewFakeClock(time.UnixMilli(0))
	sink := &recordingSink{clock: c}

	stages := entities.StageSequence{"1", "2", "3", "4", "5", "6", "7"}

	err := newTestRenderer(t, c).RenderSequential(context.Background(), stages, sink)
	require.NoError(t, err)

	require.Len(t, sink.units, 7)
	assert.Equal(t, "Step 6", sink.units[5].Title)
	assert.Equal(t, "Step 7", sink.units[6].Title)
}

func TestRenderSequentialEmptyStages(t *testing.T) {
	c := clock.NewFakeClock(time.UnixMilli(0))
	sink := &recordingSink{clock: c}

	err := newTestRenderer(t, c).RenderSequential(context.Background(), nil, sink)
	require.NoError(t, err)

	assert.Equal(t, 1, sink.clears)
	assert.Empty(t, sink.units)
}

func TestRenderSequentialPropagatesSinkError(t *testing.T) {
	c := clock.NewFakeClock(time.UnixMilli(0))
	sink := &recordingSink{clock: c, failAt: 3}

	err := newTestRenderer(t, c).RenderSequential(context.Background(), catStages, sink)
	require.Error(t, err)

	assert.Contains(t, err.Error(), "inserting stage 3")
	assert.Len(t, sink.units, 2)
}

func TestRenderSequentialStopsOnCancel(t *testing.T) {
	images, err := image_api.New(image_api.Config{Host: image_api.DefaultHost})
	require.NoError(t, err)

	renderer, err := New(Config{Images: images, Delay: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	sink := &cancellingSink{cancel: cancel}

	err = renderer.RenderSequential(ctx, catStages, sink)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, sink.inserts)
}

type cancellingSink struct {
	cancel  context.CancelFunc
	inserts int
}

func (s *cancellingSink) Clear(ctx context.Context) error {
	return nil
}

func (s *cancellingSink) Insert(ctx context.Context, unit *entities.RenderUnit) error {
	s.inserts++
	s.cancel()

	return nil
}

func TestNewRequiresImages(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
