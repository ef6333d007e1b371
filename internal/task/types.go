package task

// Task is a declarative description of one dispatch operation, loaded
// from a YAML file by the one-shot CLI commands.
type Task struct {
	Kind       string   `yaml:"kind"`
	APIVersion string   `yaml:"apiVersion"`
	Spec       TaskSpec `yaml:"spec"`
}

type TaskSpec struct {
	// Specialist names the actor the task targets. Empty means the
	// command decides from its own context.
	Specialist string `yaml:"specialist,omitempty"`

	// RepoURL is the source repository for fork-and-plan tasks.
	RepoURL string `yaml:"repoUrl,omitempty"`
	// NewRepoName renames the fork; empty keeps the source name.
	NewRepoName string `yaml:"newRepoName,omitempty"`

	// Prompt is the free-text goal: plan objective, research topic or
	// issue description depending on the command.
	Prompt string `yaml:"prompt"`

	// Seeds are repository URLs to include as research candidates.
	Seeds []string `yaml:"seeds,omitempty"`
}
