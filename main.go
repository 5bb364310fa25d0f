package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"prompt_evolver/clock"
	"prompt_evolver/databases/sqlite"
	"prompt_evolver/evolution"
	"prompt_evolver/evolution_pipeline"
	"prompt_evolver/image_api"
	"prompt_evolver/logging"
	"prompt_evolver/repositories/evolution_runs"
	"prompt_evolver/sequential_renderer"
	"prompt_evolver/text_api"
	"prompt_evolver/text_escape"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	backendPollinations = "pollinations"
	backendGemini       = "gemini"
)

// Global flags
var (
	verbose     bool
	textBackend string
	geminiModel string
	textHost    string
	imageHost   string
	dbFile      string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "prompt_evolver",
	Short: "Evolve a simple concept into a sequence of ever richer image prompts",
	Long: `prompt_evolver asks a text model to grow a concept through five
increasingly detailed prompts, then renders each one as an image card.

Cards can be delivered to Discord (bot), the terminal or an HTML gallery (run).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		logger, err = logging.New(verbose)

		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&textBackend, "text-backend", backendPollinations, "Text service: pollinations or gemini")
	rootCmd.PersistentFlags().StringVar(&geminiModel, "gemini-model", text_api.DefaultGeminiModel, "Gemini model used by the gemini backend")
	rootCmd.PersistentFlags().StringVar(&textHost, "text-host", "", "Override the text service host. Empty uses the backend default")
	rootCmd.PersistentFlags().StringVar(&imageHost, "image-host", image_api.DefaultHost, "Host for the image service")
	rootCmd.PersistentFlags().StringVar(&dbFile, "db", os.Getenv("PROMPT_EVOLVER_DB"), "SQLite file for run history. Empty disables history")

	rootCmd.AddCommand(botCmd, runCmd, historyCmd, inspectCmd)
}

func main() {
	// a missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	// flag defaults were read before .env was loaded
	dbFile = os.Getenv("PROMPT_EVOLVER_DB")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTextService(ctx context.Context, sugar *zap.SugaredLogger) (text_api.TextService, error) {
	switch textBackend {
	case backendPollinations:
		host := textHost
		if host == "" {
			host = text_api.DefaultPollinationsHost
		}

		return text_api.NewPollinations(text_api.Config{Host: host, Logger: sugar})
	case backendGemini:
		return text_api.NewGemini(ctx, text_api.GeminiConfig{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Model:   geminiModel,
			BaseURL: textHost,
			Logger:  sugar,
		})
	default:
		return nil, fmt.Errorf("unknown text backend %q", textBackend)
	}
}

// environment holds what every command shares: the image client, the
// pipeline and the optional history store.
type environment struct {
	images   *image_api.Client
	pipeline evolution_pipeline.Pipeline
	runs     evolution_runs.Repository
	closeDB  func() error
}

func (e *environment) Close() {
	if e.pipeline != nil {
		e.pipeline.Close()
	}

	if e.closeDB != nil {
		if err := e.closeDB(); err != nil {
			logger.Sugar().Errorf("Error closing database: %v", err)
		}
	}
}

func openHistory(ctx context.Context, sugar *zap.SugaredLogger) (evolution_runs.Repository, func() error, error) {
	if dbFile == "" {
		return nil, nil, nil
	}

	db, err := sqlite.New(ctx, sqlite.Config{Filename: dbFile, Logger: sugar})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create sqlite database: %w", err)
	}

	runs, err := evolution_runs.NewRepository(&evolution_runs.Config{DB: db, Clock: clock.NewClock()})
	if err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("failed to create evolution run repository: %w", err)
	}

	return runs, db.Close, nil
}

func newEnvironment(ctx context.Context, escaper text_escape.Escaper) (*environment, error) {
	sugar := logger.Sugar()

	textService, err := newTextService(ctx, sugar)
	if err != nil {
		return nil, fmt.Errorf("failed to create text service: %w", err)
	}

	images, err := image_api.New(image_api.Config{Host: imageHost})
	if err != nil {
		return nil, fmt.Errorf("failed to create image client: %w", err)
	}

	extractor, err := evolution.New(evolution.Config{TextService: textService, Logger: sugar})
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	renderer, err := sequential_renderer.New(sequential_renderer.Config{
		Images:  images,
		Escaper: escaper,
		Logger:  sugar,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	runs, closeDB, err := openHistory(ctx, sugar)
	if err != nil {
		return nil, err
	}

	pipeline, err := evolution_pipeline.New(evolution_pipeline.Config{
		Extractor: extractor,
		Renderer:  renderer,
		Recorder:  runs,
		Backend:   textService.Name(),
		Logger:    sugar,
	})
	if err != nil {
		if closeDB != nil {
			closeDB()
		}

		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	return &environment{
		images:   images,
		pipeline: pipeline,
		runs:     runs,
		closeDB:  closeDB,
	}, nil
}
