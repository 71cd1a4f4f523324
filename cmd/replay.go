package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/difficulty"
	"github.com/spigell/interview-coach/internal/interview"
)

var replayCmd = &cobra.Command{
	Use:   "replay <session-id>",
	Short: "Recompute the difficulty path of a journaled session",
	Long: `Replays the adaptive Q&A records of a session through the difficulty adapter
and prints the tier chosen after every answer. Useful to check how a change in
difficulty settings would have treated a past candidate.`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		runReplay(args[0])
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(id string) {
	ctx := context.Background()

	logger, config := mustLoad()
	defer logger.Sync()

	start, err := config.Interview.StartDifficulty()
	if err != nil {
		logger.Fatal("parsing default difficulty", zap.Error(err))
	}
	if err := config.Interview.Difficulty.Validate(); err != nil {
		logger.Fatal("validating difficulty config", zap.Error(err))
	}

	journal, err := openJournal(ctx, config.Storage)
	if err != nil {
		logger.Fatal("opening the journal", zap.Error(err))
	}
	if journal == nil {
		logger.Fatal("a journal is required, set storage.driver to sqlite or redis")
	}
	defer journal.Close()

	records, err := journal.Records(ctx, id)
	if err != nil {
		logger.Fatal("loading session records", zap.String("session_id", id), zap.Error(err))
	}

	var adaptive []interview.ResponseRecord
	for _, rec := range records {
		if rec.Phase == interview.PhaseAdaptiveQnA {
			adaptive = append(adaptive, rec)
		}
	}
	if len(adaptive) == 0 {
		logger.Info("session has no adaptive answers", zap.String("session_id", id))
		return
	}

	tiers := difficulty.Replay(start, adaptive, config.Interview.Difficulty)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tQUESTION\tASKED AT\tCORRECTNESS\tNEXT TIER")
	for i, rec := range adaptive {
		correctness := "skipped"
		if !rec.Skipped() {
			correctness = fmt.Sprintf("%.1f", rec.Scores[interview.AxisCorrectness])
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, rec.QuestionID, rec.Difficulty, correctness, tiers[i])
	}
	if err := w.Flush(); err != nil {
		logger.Fatal("writing replay", zap.Error(err))
	}
}
