package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"prompt_evolver/composite_renderer"
	"prompt_evolver/html_sink"
	"prompt_evolver/image_loader"
	"prompt_evolver/terminal_sink"
	"prompt_evolver/text_escape"

	"github.com/spf13/cobra"
)

const (
	formatTerminal = "terminal"
	formatHTML     = "html"
)

var (
	runFormat string
	outDir    string
	htmlFile  string
)

var runCmd = &cobra.Command{
	Use:   "run [concept]",
	Short: "Evolve one concept and render it to the terminal or an HTML gallery",
	Example: `  prompt_evolver run "a cat" --out ./cat
  prompt_evolver run "a lighthouse" --format html --html gallery.html`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEvolve,
}

func init() {
	runCmd.Flags().StringVar(&runFormat, "format", formatTerminal, "Output format: terminal or html")
	runCmd.Flags().StringVar(&outDir, "out", "", "Directory for stage images and the contact sheet (terminal format)")
	runCmd.Flags().StringVar(&htmlFile, "html", "evolution.html", "Gallery file (html format)")
}

func runEvolve(cmd *cobra.Command, args []string) error {
	concept := strings.Join(args, " ")

	switch runFormat {
	case formatTerminal:
		return runTerminal(cmd, concept)
	case formatHTML:
		return runHTML(cmd, concept)
	default:
		return fmt.Errorf("unknown format %q", runFormat)
	}
}

func runTerminal(cmd *cobra.Command, concept string) error {
	sugar := logger.Sugar()
	ctx := cmd.Context()

	env, err := newEnvironment(ctx, text_escape.Terminal)
	if err != nil {
		return err
	}
	defer env.Close()

	loader, err := image_loader.New(image_loader.Config{Fetcher: env.images, Logger: sugar})
	if err != nil {
		return err
	}

	composite, err := composite_renderer.New(composite_renderer.Config{Gutter: 8})
	if err != nil {
		return err
	}

	sink, err := terminal_sink.New(terminal_sink.Config{
		Out:       cmd.OutOrStdout(),
		Loader:    loader,
		OutputDir: outDir,
		Composite: composite,
		Concept:   concept,
		Logger:    sugar,
	})
	if err != nil {
		return err
	}

	_, runErr := env.pipeline.Run(ctx, concept, sink)

	sheetPath, err := sink.Wait()
	if err != nil {
		sugar.Errorf("Error writing contact sheet: %v", err)
	} else if sheetPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Contact sheet saved to %s\n", sheetPath)
	}

	return runErr
}

func runHTML(cmd *cobra.Command, concept string) error {
	ctx := cmd.Context()

	if htmlFile == "" {
		return errors.New("missing gallery file")
	}

	if dir := filepath.Dir(htmlFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	env, err := newEnvironment(ctx, text_escape.HTML)
	if err != nil {
		return err
	}
	defer env.Close()

	sink, err := html_sink.New(html_sink.Config{Path: htmlFile, Logger: logger.Sugar()})
	if err != nil {
		return err
	}

	_, err = env.pipeline.Run(ctx, concept, sink)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Gallery written to %s\n", sink.Path())

	return nil
}
