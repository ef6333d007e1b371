package workflow

import (
	"fmt"
	"strings"

	"github.com/jmbish04/lightbulb-aquarium/internal/hosting"
)

const planSystemPrompt = `You are a senior project planner. Respond with a single JSON object:
{"summary": string, "milestones": [{"title": string, "tasks": [string], "effortDays": number}],
"risks": [string], "successMetrics": [string]}. No prose outside the JSON.`

func planPrompt(source *hosting.Repo, task string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Draft a delivery plan for the following task against repository %s.\n\n", source.FullName)
	if source.Description != "" {
		fmt.Fprintf(&b, "Repository description: %s\n\n", source.Description)
	}
	fmt.Fprintf(&b, "Task: %s\n\n", task)
	b.WriteString("Produce 3-5 ordered milestones with concrete tasks and effort estimates in days, ")
	b.WriteString("a risk register, and measurable success metrics.")
	return b.String()
}

const analysisSystemPrompt = `You are evaluating a repository as a candidate for a research brief. Respond
with a single JSON object: {"summary": string, "notableCapabilities": [string],
"fitScore": number between 0 and 1, "findings": [string]}. No prose outside the JSON.`

func analysisPrompt(topic string, repo *hosting.Repo, readme string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research topic: %s\n\n", topic)
	fmt.Fprintf(&b, "Candidate repository: %s (%d stars)\n", repo.FullName, repo.Stars)
	if repo.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", repo.Description)
	}
	if readme != "" {
		fmt.Fprintf(&b, "\nReadme:\n%s\n", truncate(readme, 6000))
	}
	b.WriteString("\nAssess how well this repository fits the research topic.")
	return b.String()
}

const synthesisSystemPrompt = `You are writing the executive synthesis of a research brief. Respond with a
single JSON object: {"overallSummary": string, "recommendations": [string]} where
recommendations are ranked best first. No prose outside the JSON.`

func synthesisPrompt(topic string, analyses []*RepoAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research topic: %s\n\nPer-candidate analyses:\n", topic)
	for i, a := range analyses {
		fmt.Fprintf(&b, "%d. %s (fit %.2f): %s\n", i+1, a.URL, a.FitScore, a.Summary)
		for _, f := range a.Findings {
			fmt.Fprintf(&b, "   - %s\n", f)
		}
	}
	b.WriteString("\nSynthesize an overall summary and ranked recommendations.")
	return b.String()
}

const consultSystemPrompt = `You are a debugging consultant. Explain the most likely root cause and a
concrete fix. Be specific and brief.`

func consultPrompt(question, contextText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", question)
	if contextText != "" {
		fmt.Fprintf(&b, "\nContext:\n%s\n", truncate(contextText, 6000))
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n[truncated]"
}
