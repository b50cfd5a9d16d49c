package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/adapters/file"
	"github.com/aretw0/canopy/pkg/domain"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run the questionnaire interactively",
	Long:  `Walks the questionnaire on the terminal, one visible question at a time. Commands: back, skip, flag, exit.`,
	Run: func(cmd *cobra.Command, args []string) {
		path, _ := cmd.Flags().GetString("questionnaire")
		if !cmd.Flags().Changed("questionnaire") && len(args) > 0 {
			path = args[0]
		}
		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID == "" {
			sessionID = "local"
		}
		sessionsDir, _ := cmd.Flags().GetString("sessions-dir")
		allowSkip, _ := cmd.Flags().GetBool("allow-skip")

		opts := []canopy.Option{}
		if allowSkip {
			opts = append(opts, canopy.WithAllowSkip())
		}
		if sessionsDir != "" {
			opts = append(opts, canopy.WithStore(file.NewStore(sessionsDir)))
		}

		engine, err := canopy.LoadFile(path, opts...)
		if err != nil {
			fmt.Printf("Error loading questionnaire: %v\n", err)
			os.Exit(1)
		}

		flow, err := engine.StartSession(cmd.Context(), sessionID)
		if err != nil {
			fmt.Printf("Error starting session: %v\n", err)
			os.Exit(1)
		}
		defer flow.Close()

		if err := answerLoop(cmd.Context(), engine.Questionnaire(), flow, os.Stdin, os.Stdout); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("session", "local", "Session id to start or resume")
	runCmd.Flags().String("sessions-dir", "", "Persist sessions to this directory (empty disables persistence)")
	runCmd.Flags().Bool("allow-skip", false, "Allow skipping questions with the 'skip' command")

	// Make 'run' the default if no command is provided.
	rootCmd.Run = runCmd.Run
}

// answerLoop drives the flow from a line-oriented reader until completion or
// an explicit exit. Bare input answers the current question and advances.
func answerLoop(ctx context.Context, qn domain.Questionnaire, flow *canopy.Flow, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	fmt.Fprintf(out, "--- %s ---\n", qn.Title)

	for !flow.Completed() {
		q, ok := flow.Current()
		if !ok {
			flow.Next(ctx)
			continue
		}

		fmt.Fprintf(out, "\n[%d/%d] %s", flow.Index()+1, len(flow.Visible()), q.Text)
		if q.Required {
			fmt.Fprint(out, " *")
		}
		fmt.Fprintln(out)
		if q.Description != "" {
			fmt.Fprintln(out, q.Description)
		}
		if prev, ok := flow.AnswerValue(q.ID); ok {
			fmt.Fprintf(out, "(current answer: %v)\n", prev)
		}

		fmt.Fprint(out, "> ")
		line, err := reader.ReadString('\n')
		if err == io.EOF && line == "" {
			fmt.Fprintln(out, "\nBye!")
			return flow.Save(ctx)
		} else if err != nil && err != io.EOF {
			return err
		}
		input := strings.TrimSpace(line)

		switch input {
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return flow.Save(ctx)
		case "back":
			if !flow.Previous(ctx) {
				fmt.Fprintln(out, "Already at the first question.")
			}
			continue
		case "skip":
			if !flow.Skip(ctx) {
				fmt.Fprintln(out, "Skipping is not allowed.")
			}
			continue
		case "flag":
			if err := flow.ToggleFlag(ctx, q.ID); err != nil {
				return err
			}
			fmt.Fprintln(out, "Flagged for review.")
			continue
		case "":
			// Advance without changing the answer; validation may refuse.
		default:
			if err := flow.Answer(ctx, q.ID, parseAnswer(q, input)); err != nil {
				return err
			}
		}

		if !flow.Next(ctx) && !flow.Completed() {
			if reason, ok := flow.Error(q.ID); ok {
				fmt.Fprintf(out, "✗ %s\n", reason)
			}
		}
	}

	fmt.Fprintln(out, "\n--- Complete ---")
	for _, q := range qn.Questions {
		if v, ok := flow.AnswerValue(q.ID); ok {
			fmt.Fprintf(out, "%s: %v\n", q.ID, v)
		}
	}
	if flagged := flow.Flagged(); len(flagged) > 0 {
		fmt.Fprintf(out, "flagged: %s\n", strings.Join(flagged, ", "))
	}
	return flow.Save(ctx)
}

// parseAnswer maps terminal input onto the answer shape the question expects:
// numbers for numeric widgets, a slice for multi-select, a string otherwise.
func parseAnswer(q domain.Question, input string) any {
	switch q.Type {
	case domain.TypeNumber, domain.TypeRating, domain.TypeTimeEstimate,
		domain.TypeDifficultyScale, domain.TypeDebtTolerance:
		if f, err := strconv.ParseFloat(input, 64); err == nil {
			return f
		}
		return input
	case domain.TypeRanking:
		return splitList(input)
	case domain.TypeMultipleChoice:
		if !q.SingleSelect() {
			return splitList(input)
		}
	}
	return input
}

func splitList(input string) []any {
	parts := strings.Split(input, ",")
	values := make([]any, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	return values
}
