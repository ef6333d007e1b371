package task

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

func LoadFromFile(path string) (*Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}

	var t Task
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse task file: %w", err)
	}

	if err := validate(&t); err != nil {
		return nil, fmt.Errorf("invalid task definition: %w", err)
	}

	return &t, nil
}

func validate(t *Task) error {
	if t.Kind != "Task" {
		return fmt.Errorf("kind must be 'Task', got '%s'", t.Kind)
	}

	if t.Spec.Prompt == "" {
		return fmt.Errorf("spec.prompt is required")
	}

	return nil
}
