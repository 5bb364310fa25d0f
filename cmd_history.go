package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"prompt_evolver/entities"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently recorded evolution runs",
	RunE:  listHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to show")
}

func listHistory(cmd *cobra.Command, args []string) error {
	if dbFile == "" {
		return errors.New("run history is disabled, pass --db or set PROMPT_EVOLVER_DB")
	}

	runs, closeDB, err := openHistory(cmd.Context(), logger.Sugar())
	if err != nil {
		return err
	}
	defer closeDB()

	recent, err := runs.ListRecent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	return printHistory(cmd, recent)
}

func printHistory(cmd *cobra.Command, recent []*entities.EvolutionRun) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tWHEN\tSTATUS\tBACKEND\tCONCEPT\tFINAL STAGE")

	for _, run := range recent {
		status := string(run.Status)
		if run.FailureKind != entities.FailureKindNone {
			status += " (" + string(run.FailureKind) + ")"
		}

		final := ""
		if len(run.Stages) > 0 {
			final = truncate(run.Stages[len(run.Stages)-1], 60)
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			run.ID,
			run.CreatedAt.Local().Format(time.DateTime),
			status,
			run.Backend,
			truncate(run.Concept, 30),
			final)
	}

	return w.Flush()
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")

	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n-3]) + "..."
}
