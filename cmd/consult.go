package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmbish04/lightbulb-aquarium/internal/task"
)

var consultCmd = &cobra.Command{
	Use:   "consult",
	Short: "Report an issue and get a debugging consultation",
	Long: `Consult runs the error/debug workflow directly: record the question,
analyze it through the completion service, and persist the outcome. A failed
analysis leaves the consultation at unresolved for later inspection.

Example:
  lba consult --question "jobs stuck in pending" --context "after the 1.4 upgrade"
  lba consult --task task.yaml`,
	RunE: runConsult,
}

var (
	consultTaskFile string
	consultQuestion string
	consultContext  string
)

func init() {
	rootCmd.AddCommand(consultCmd)

	consultCmd.Flags().StringVarP(&consultTaskFile, "task", "t", "", "Path to Task YAML file")
	consultCmd.Flags().StringVar(&consultQuestion, "question", "", "Issue description")
	consultCmd.Flags().StringVar(&consultContext, "context", "", "Additional context (logs, versions)")
}

func runConsult(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := GetLogger()

	question := consultQuestion
	contextText := consultContext
	if consultTaskFile != "" {
		t, err := task.LoadFromFile(consultTaskFile)
		if err != nil {
			logger.Error("failed to parse task file", "error", err)
			return fmt.Errorf("failed to parse task file: %w", err)
		}
		question = t.Spec.Prompt
	}

	collab, err := buildCollaborators(ctx, logger)
	if err != nil {
		return err
	}
	defer collab.Close()

	result, err := collab.orch.Consult(ctx, question, contextText, func(message string) {
		logger.Info(message)
	})
	if err != nil {
		return fmt.Errorf("consult workflow failed: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
