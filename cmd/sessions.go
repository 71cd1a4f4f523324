package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/interview"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List journaled interview sessions",
	Run: func(_ *cobra.Command, _ []string) {
		runSessions()
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions() {
	ctx := context.Background()

	logger, config := mustLoad()
	defer logger.Sync()

	journal, err := openJournal(ctx, config.Storage)
	if err != nil {
		logger.Fatal("opening the journal", zap.Error(err))
	}
	if journal == nil {
		logger.Fatal("a journal is required, set storage.driver to sqlite or redis")
	}
	defer journal.Close()

	ids, err := journal.Sessions(ctx)
	if err != nil {
		logger.Fatal("listing sessions", zap.Error(err))
	}
	if len(ids) == 0 {
		logger.Info("no sessions in the journal")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tPHASE\tSTATUS\tANSWERED\tUPDATED")
	for _, id := range ids {
		state, err := journal.Snapshot(ctx, id)
		if err != nil {
			logger.Warn("skipping unreadable session", zap.String("session_id", id), zap.Error(err))
			continue
		}
		progress := state.Progress()
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\n", id, state.Phase, status(state), progress.Answered, progress.Total, state.UpdatedAt.Format(time.RFC3339))
	}
	if err := w.Flush(); err != nil {
		logger.Fatal("writing sessions", zap.Error(err))
	}
}

func status(state *interview.SessionState) string {
	switch {
	case state.Abandoned:
		return "abandoned"
	case state.Terminal:
		return "complete"
	case state.Started:
		return "in progress"
	default:
		return "not started"
	}
}
