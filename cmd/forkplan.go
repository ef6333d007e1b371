package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmbish04/lightbulb-aquarium/internal/task"
	"github.com/jmbish04/lightbulb-aquarium/internal/workflow"
)

var forkplanCmd = &cobra.Command{
	Use:   "forkplan",
	Short: "Fork a repository and generate a project plan",
	Long: `Forkplan runs the fork/plan workflow directly, without going through the
gateway: fork the source repository, wait for the copy to become readable,
ask the completion service for a structured plan, and persist the project
and plan together.

Example:
  lba forkplan --repo https://github.com/acme/widgets --prompt "Add dark mode"
  lba forkplan --task task.yaml`,
	RunE: runForkplan,
}

var (
	forkplanTaskFile string
	forkplanRepo     string
	forkplanNewName  string
	forkplanPrompt   string
)

func init() {
	rootCmd.AddCommand(forkplanCmd)

	forkplanCmd.Flags().StringVarP(&forkplanTaskFile, "task", "t", "", "Path to Task YAML file")
	forkplanCmd.Flags().StringVar(&forkplanRepo, "repo", "", "Source repository URL")
	forkplanCmd.Flags().StringVar(&forkplanNewName, "new-name", "", "Name for the fork (default: source name)")
	forkplanCmd.Flags().StringVar(&forkplanPrompt, "prompt", "", "Task description to plan for")
}

func runForkplan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := GetLogger()

	req := workflow.ForkPlanRequest{
		RepoURL:         forkplanRepo,
		NewRepoName:     forkplanNewName,
		TaskDescription: forkplanPrompt,
	}
	if forkplanTaskFile != "" {
		t, err := task.LoadFromFile(forkplanTaskFile)
		if err != nil {
			logger.Error("failed to parse task file", "error", err)
			return fmt.Errorf("failed to parse task file: %w", err)
		}
		req.RepoURL = t.Spec.RepoURL
		req.NewRepoName = t.Spec.NewRepoName
		req.TaskDescription = t.Spec.Prompt
	}

	collab, err := buildCollaborators(ctx, logger)
	if err != nil {
		return err
	}
	defer collab.Close()

	result, err := collab.orch.ForkPlan(ctx, req, func(message string) {
		logger.Info(message)
	})
	if err != nil {
		return fmt.Errorf("fork/plan workflow failed: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
