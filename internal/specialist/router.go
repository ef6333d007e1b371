package specialist

import "strings"

// Keyword classes used to suggest a specialist for a free-form task
// description. Scoring is additive: one point per keyword hit, three
// bonus points for the strong terms of each class.
var (
	sourceControlKeywords = []string{
		"repo", "repository", "fork", "branch", "clone", "commit",
		"pull request", "merge", "plan", "milestone", "project",
		"scaffold", "bootstrap", "workspace",
	}
	researchKeywords = []string{
		"research", "evaluate", "compare", "survey", "library",
		"framework", "alternative", "candidate", "readme", "ecosystem",
		"investigate", "landscape", "recommendation",
	}
	consultKeywords = []string{
		"error", "bug", "debug", "crash", "stack trace", "fix",
		"broken", "failure", "regression", "diagnose", "troubleshoot",
		"incident",
	}
	draftingKeywords = []string{
		"draft", "write", "document", "documentation", "blog",
		"announcement", "summary", "copy", "readme", "changelog",
		"description", "content",
	}

	sourceControlStrong = []string{"fork", "repository", "pull request", "project plan"}
	researchStrong      = []string{"research", "evaluate", "compare", "survey"}
	consultStrong       = []string{"error", "debug", "stack trace", "regression"}
	draftingStrong      = []string{"draft", "blog", "announcement", "changelog"}
)

// Suggest picks the specialist best suited to a task, scoring its title
// and description against per-specialist keyword classes. Ties and
// no-hit inputs fall back to source-control, the workhorse specialist.
func Suggest(title, description string) string {
	text := strings.ToLower(title + " " + description)

	scores := map[string]int{
		"source-control": keywordScore(text, sourceControlKeywords) + bonusScore(text, sourceControlStrong),
		"research":       keywordScore(text, researchKeywords) + bonusScore(text, researchStrong),
		"consult":        keywordScore(text, consultKeywords) + bonusScore(text, consultStrong),
		"drafting":       keywordScore(text, draftingKeywords) + bonusScore(text, draftingStrong),
	}

	best := "source-control"
	bestScore := 0
	// Deterministic iteration so ties resolve stably.
	for _, name := range []string{"source-control", "research", "consult", "drafting"} {
		if scores[name] > bestScore {
			best = name
			bestScore = scores[name]
		}
	}

	if bestScore == 0 {
		return "source-control"
	}
	return best
}

func keywordScore(text string, keywords []string) int {
	score := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			score++
		}
	}
	return score
}

func bonusScore(text string, strong []string) int {
	for _, kw := range strong {
		if strings.Contains(text, kw) {
			return 3
		}
	}
	return 0
}
