package main

import (
	"fmt"
	"io"
	"os"

	"prompt_evolver/png_info"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [contact sheet]",
	Short: "Print the concept and stage prompts embedded in a contact sheet",
	Args:  cobra.ExactArgs(1),
	RunE:  inspectSheet,
}

func inspectSheet(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	info, err := png_info.ExtractStages(data)
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	return printStageInfo(cmd.OutOrStdout(), info)
}

func printStageInfo(w io.Writer, info *png_info.StageInfo) error {
	if info.Concept == "" && len(info.Stages) == 0 {
		_, err := fmt.Fprintln(w, "No evolution stages embedded.")

		return err
	}

	if _, err := fmt.Fprintf(w, "Concept: %s\n", info.Concept); err != nil {
		return err
	}

	for _, stage := range info.Stages {
		if _, err := fmt.Fprintf(w, "Stage %d: %s\n", stage.Number, stage.Text); err != nil {
			return err
		}
	}

	return nil
}
