package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/httpapi"
	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/render"
)

const (
	PromptAnswer = "Answer"
	PromptSkip   = "Skip this question"
	PromptEnd    = "End the interview now"
)

var errEnded = errors.New("interview ended by candidate")

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run an interactive mock Excel interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		runInterview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().String("server", "", "drive a remote interview-coach server instead of a local session")
	interviewCmd.Flags().String("session-id", "", "session id to start or resume (generated when empty)")
	interviewCmd.Flags().StringP("format", "f", "text", "report format: text, json or yaml")
}

func runInterview(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := mustLoad()
	defer logger.Sync()

	format, err := render.ParseFormat(flagString(cmd, "format"))
	if err != nil {
		logger.Fatal("parsing report format", zap.Error(err))
	}

	var sessions httpapi.Sessions
	if server := flagString(cmd, "server"); server != "" {
		logger.Info("using remote server", zap.String("server", server))
		sessions = httpapi.NewClient(server, logger)
	} else {
		svc, journal, err := buildService(ctx, config, logger)
		if err != nil {
			logger.Fatal("building the interview service", zap.Error(err))
		}
		if journal != nil {
			defer journal.Close()
		}
		sessions = svc
	}

	prompt, err := startOrResume(ctx, sessions, flagString(cmd, "session-id"))
	if err != nil {
		logger.Fatal("starting the interview", zap.Error(err))
	}
	logger.Info("interview started", zap.String("session_id", prompt.SessionID))

	rep, err := converse(ctx, sessions, prompt)
	if err != nil {
		logger.Fatal("running the interview", zap.Error(err))
	}

	if err := render.Write(os.Stdout, rep, format); err != nil {
		logger.Fatal("rendering the report", zap.Error(err))
	}
}

// startOrResume resumes id when it already exists, otherwise starts a new session.
func startOrResume(ctx context.Context, sessions httpapi.Sessions, id string) (*interview.Prompt, error) {
	if id != "" {
		prompt, err := sessions.Current(ctx, id)
		if err == nil {
			return prompt, nil
		}
		if !errors.Is(err, interview.ErrSessionNotFound) && !errors.Is(err, interview.ErrNoActiveQuestion) {
			return nil, err
		}
	}
	return sessions.Start(ctx, id)
}

// converse loops over prompts until the interview closes or the candidate ends it.
func converse(ctx context.Context, sessions httpapi.Sessions, prompt *interview.Prompt) (*interview.FeedbackReport, error) {
	id := prompt.SessionID
	for {
		printPrompt(prompt)

		turn, err := ask(ctx, sessions, prompt)
		if errors.Is(err, errEnded) || errors.Is(err, promptui.ErrInterrupt) || ctx.Err() != nil {
			return sessions.Abandon(context.WithoutCancel(ctx), id)
		}
		if err != nil {
			return nil, err
		}

		if turn.Record != nil {
			printRecord(turn.Record)
		}
		if turn.Done() {
			return turn.Report, nil
		}
		prompt = turn.Prompt
	}
}

func ask(ctx context.Context, sessions httpapi.Sessions, prompt *interview.Prompt) (*interview.Turn, error) {
	for {
		menu := promptui.Select{
			Label: "What next?",
			Items: []string{PromptAnswer, PromptSkip, PromptEnd},
		}
		_, action, err := menu.Run()
		if err != nil {
			return nil, err
		}

		switch action {
		case PromptSkip:
			return sessions.Skip(ctx, prompt.SessionID)
		case PromptEnd:
			return nil, errEnded
		}

		input := promptui.Prompt{
			Label: "Your answer",
			Validate: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return interview.ErrEmptyResponse
				}
				return nil
			},
		}
		answer, err := input.Run()
		if errors.Is(err, promptui.ErrAbort) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return sessions.Submit(ctx, prompt.SessionID, answer)
	}
}

func printPrompt(p *interview.Prompt) {
	fmt.Printf("\n[%s %d/%d, %s]\n", strings.ReplaceAll(string(p.Phase), "_", " "), p.Index+1, p.Total, p.Difficulty)
	fmt.Println(p.Text)
	if p.Context != "" {
		fmt.Printf("  (%s)\n", p.Context)
	}
	if p.Retry > 0 {
		fmt.Printf("  skipped %d time(s) already\n", p.Retry)
	}
}

func printRecord(rec *interview.ResponseRecord) {
	if rec.Skipped() {
		fmt.Println("Moving on.")
		return
	}
	if rec.Rationale != "" && rec.Rationale != "not scored" {
		fmt.Printf("Feedback: %s\n", rec.Rationale)
	}
}

func flagString(cmd *cobra.Command, name string) string {
	flag := cmd.Flag(name)
	if flag == nil {
		return ""
	}
	return strings.TrimSpace(flag.Value.String())
}
