package store

import "time"

// Project status lifecycle: planned -> active -> completed|archived.
// A workflow that dies after partial writes parks the row at failed so
// operators can read why it stopped.
const (
	ProjectPlanned   = "planned"
	ProjectActive    = "active"
	ProjectCompleted = "completed"
	ProjectArchived  = "archived"
	ProjectFailed    = "failed"
)

// Brief status lifecycle: pending -> researching -> complete.
const (
	BriefPending     = "pending"
	BriefResearching = "researching"
	BriefComplete    = "complete"
	BriefError       = "error"
)

// Consultation status lifecycle: reported -> analyzing -> fixed|unresolved.
const (
	ConsultReported   = "reported"
	ConsultAnalyzing  = "analyzing"
	ConsultFixed      = "fixed"
	ConsultUnresolved = "unresolved"
)

// Project is one workflow run of the fork/plan orchestrator.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	SourceURL   string    `json:"sourceUrl"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Plan is the structured artifact attached 1:1 to a Project. Body holds
// the plan JSON; plans are immutable once written.
type Plan struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Brief is one research-brief workflow run.
type Brief struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Summary   string    `json:"summary"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// RepoReview records one candidate repository's analysis inside a brief.
type RepoReview struct {
	ID      string `json:"id"`
	BriefID string `json:"briefId"`
	URL     string `json:"url"`
	Notes   string `json:"notes"`
}

// Finding is a single takeaway extracted during a repo review.
type Finding struct {
	ID             string `json:"id"`
	BriefID        string `json:"briefId"`
	Text           string `json:"text"`
	SourceReviewID string `json:"sourceReviewId"`
}

// Consultation is one error/debug workflow record.
type Consultation struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Context  string `json:"context"`
	Response string `json:"response"`
	Status   string `json:"status"`
}

// Artifact is a selected fan-out-and-judge output keyed by topic. Each
// call persists exactly one row; topics are not unique.
type Artifact struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
