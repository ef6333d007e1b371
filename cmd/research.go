package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmbish04/lightbulb-aquarium/internal/task"
	"github.com/jmbish04/lightbulb-aquarium/internal/workflow"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Produce a research brief for a topic",
	Long: `Research runs the research-brief workflow directly: gather candidate
repositories from seeds and search, analyze each one, persist review notes
and findings as they complete, then synthesize an executive summary.

Example:
  lba research --topic "Go rate limiter libraries"
  lba research --task task.yaml`,
	RunE: runResearch,
}

var (
	researchTaskFile string
	researchTopic    string
	researchSeeds    []string
)

func init() {
	rootCmd.AddCommand(researchCmd)

	researchCmd.Flags().StringVarP(&researchTaskFile, "task", "t", "", "Path to Task YAML file")
	researchCmd.Flags().StringVar(&researchTopic, "topic", "", "Research topic")
	researchCmd.Flags().StringSliceVar(&researchSeeds, "seed", nil, "Seed repository URL (repeatable)")
}

func runResearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := GetLogger()

	req := workflow.BriefRequest{
		Topic: researchTopic,
		Seeds: researchSeeds,
	}
	if researchTaskFile != "" {
		t, err := task.LoadFromFile(researchTaskFile)
		if err != nil {
			logger.Error("failed to parse task file", "error", err)
			return fmt.Errorf("failed to parse task file: %w", err)
		}
		req.Topic = t.Spec.Prompt
		req.Seeds = t.Spec.Seeds
	}

	collab, err := buildCollaborators(ctx, logger)
	if err != nil {
		return err
	}
	defer collab.Close()

	result, err := collab.orch.ResearchBrief(ctx, req, func(message string) {
		logger.Info(message)
	})
	if err != nil {
		return fmt.Errorf("research workflow failed: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
