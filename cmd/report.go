package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/render"
	"github.com/spigell/interview-coach/internal/report"
	"github.com/spigell/interview-coach/internal/scoring"
)

var reportCmd = &cobra.Command{
	Use:   "report <session-id>",
	Short: "Print the feedback report of a journaled session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runReport(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringP("format", "f", "text", "report format: text, json or yaml")
}

func runReport(cmd *cobra.Command, id string) {
	ctx := context.Background()

	logger, config := mustLoad()
	defer logger.Sync()

	format, err := render.ParseFormat(flagString(cmd, "format"))
	if err != nil {
		logger.Fatal("parsing report format", zap.Error(err))
	}

	journal, err := openJournal(ctx, config.Storage)
	if err != nil {
		logger.Fatal("opening the journal", zap.Error(err))
	}
	if journal == nil {
		logger.Fatal("a journal is required, set storage.driver to sqlite or redis")
	}
	defer journal.Close()

	state, err := journal.Snapshot(ctx, id)
	if err != nil {
		logger.Fatal("loading the session", zap.String("session_id", id), zap.Error(err))
	}

	weights, err := scoring.DecodeWeights(config.Scoring.Weights)
	if err != nil {
		logger.Fatal("decoding scoring weights", zap.Error(err))
	}

	// A stored report is final. Otherwise generate a partial one from what was recorded.
	rep := state.Report
	if rep == nil {
		logger.Debug("session has no final report, generating a partial one", zap.String("phase", string(state.Phase)))
		if rep, err = report.NewGenerator(weights).Generate(state); err != nil {
			logger.Fatal("generating the report", zap.Error(err))
		}
	}

	if err := render.Write(os.Stdout, rep, format); err != nil {
		logger.Fatal("rendering the report", zap.Error(err))
	}
}
