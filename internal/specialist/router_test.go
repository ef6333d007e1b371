package specialist

import "testing"

func TestSuggest(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		want        string
	}{
		{
			name:        "fork work goes to source-control",
			title:       "Fork the widgets repository",
			description: "fork acme/widgets and set up a project plan",
			want:        "source-control",
		},
		{
			name:        "library evaluation goes to research",
			title:       "Evaluate CSV parsing libraries",
			description: "compare candidate libraries and survey the ecosystem",
			want:        "research",
		},
		{
			name:        "stack trace goes to consult",
			title:       "Crash on startup",
			description: "debug the stack trace from the nightly regression",
			want:        "consult",
		},
		{
			name:        "announcement goes to drafting",
			title:       "Draft the release announcement",
			description: "write the changelog and blog post",
			want:        "drafting",
		},
		{
			name:        "no keyword hits falls back to source-control",
			title:       "misc",
			description: "do the thing",
			want:        "source-control",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Suggest(tt.title, tt.description); got != tt.want {
				t.Errorf("Suggest() = %q, want %q", got, tt.want)
			}
		})
	}
}
