package terminal_sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"prompt_evolver/composite_renderer"
	"prompt_evolver/entities"
	"prompt_evolver/image_api"
	"prompt_evolver/image_loader"
	"prompt_evolver/png_info"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

const contactSheetName = "evolution.png"

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(72)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	pendingStyle = lipgloss.NewStyle().Faint(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// Sink prints each stage as a card and saves the images into OutputDir as
// they arrive. Wait writes a contact sheet of every image that loaded.
type Sink struct {
	out       io.Writer
	loader    *image_loader.Loader
	outputDir string
	composite composite_renderer.Renderer
	concept   string
	logger    *zap.SugaredLogger

	mu         sync.Mutex
	generation int
	units      map[int]*entities.RenderUnit
	images     map[int][]byte
}

type Config struct {
	Out    io.Writer
	Loader *image_loader.Loader
	// OutputDir is optional. Without it images are fetched but not saved.
	OutputDir string
	// Composite is optional. Without it no contact sheet is written.
	Composite composite_renderer.Renderer
	Concept   string
	Logger    *zap.SugaredLogger
}

func New(cfg Config) (*Sink, error) {
	if cfg.Loader == nil {
		return nil, errors.New("missing image loader")
	}

	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	if cfg.OutputDir != "" {
		err := os.MkdirAll(cfg.OutputDir, 0o755)
		if err != nil {
			return nil, err
		}
	}

	return &Sink{
		out:       cfg.Out,
		loader:    cfg.Loader,
		outputDir: cfg.OutputDir,
		composite: cfg.Composite,
		concept:   cfg.Concept,
		logger:    cfg.Logger,
		units:     map[int]*entities.RenderUnit{},
		images:    map[int][]byte{},
	}, nil
}

func (s *Sink) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.units = map[int]*entities.RenderUnit{}
	s.images = map[int][]byte{}

	return nil
}

func (s *Sink) Insert(ctx context.Context, unit *entities.RenderUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.units[unit.Index] = unit
	generation := s.generation

	card := lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render(unit.Title),
		unit.Text,
		pendingStyle.Render(fmt.Sprintf("loading image (seed %d)...", unit.Image.Seed)),
	)

	_, err := fmt.Fprintln(s.out, cardStyle.Render(card))
	if err != nil {
		return err
	}

	s.loader.Load(ctx, unit.Index, unit.Image.URL, func(r image_loader.Result) {
		s.imageLoaded(generation, r)
	})

	return nil
}

func (s *Sink) imageLoaded(generation int, r image_loader.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// a result from before the last Clear belongs to a card that is gone
	if generation != s.generation {
		return
	}

	unit := s.units[r.Index]
	if unit == nil {
		return
	}

	if r.Err != nil {
		fmt.Fprintln(s.out, failStyle.Render(fmt.Sprintf("✗ %s: image unavailable", unit.Title)))

		return
	}

	s.images[r.Index] = r.Data

	if s.outputDir == "" {
		fmt.Fprintln(s.out, okStyle.Render(fmt.Sprintf("✓ %s: image ready (%d KB)", unit.Title, len(r.Data)/1024)))

		return
	}

	path := filepath.Join(s.outputDir, fmt.Sprintf("stage-%d%s", r.Index+1, image_api.Extension(r.Data)))

	err := os.WriteFile(path, r.Data, 0o644)
	if err != nil {
		s.logger.Errorf("Error saving image for stage %d: %v", r.Index+1, err)
		fmt.Fprintln(s.out, failStyle.Render(fmt.Sprintf("✗ %s: could not save image", unit.Title)))

		return
	}

	fmt.Fprintln(s.out, okStyle.Render(fmt.Sprintf("✓ %s: saved %s", unit.Title, path)))
}

func (s *Sink) ReportFailure(ctx context.Context, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := fmt.Fprintln(s.out, errorStyle.Render(message))

	return err
}

// Wait blocks until every image load has finished and then writes the
// contact sheet. It returns the sheet path, or "" when none was written.
func (s *Sink) Wait() (string, error) {
	s.loader.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.outputDir == "" || s.composite == nil || len(s.images) == 0 {
		return "", nil
	}

	indexes := make([]int, 0, len(s.images))
	for index := range s.images {
		indexes = append(indexes, index)
	}

	sort.Ints(indexes)

	bufs := make([]*bytes.Buffer, 0, len(indexes))
	stages := make([]png_info.Stage, 0, len(indexes))

	for _, index := range indexes {
		bufs = append(bufs, bytes.NewBuffer(s.images[index]))
		stages = append(stages, png_info.Stage{Number: index + 1, Text: s.units[index].Stage})
	}

	sheet, err := s.composite.TileImages(bufs)
	if err != nil {
		return "", fmt.Errorf("tiling contact sheet: %w", err)
	}

	data, err := png_info.EmbedStages(sheet.Bytes(), s.concept, stages)
	if err != nil {
		return "", fmt.Errorf("embedding stages: %w", err)
	}

	path := filepath.Join(s.outputDir, contactSheetName)

	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		return "", err
	}

	return path, nil
}
