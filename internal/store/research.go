package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jmbish04/lightbulb-aquarium/internal/fault"
)

// CreateBrief inserts a brief row. The orchestrator creates it in the
// researching state before any expensive work so partial progress is
// always inspectable.
func (s *Store) CreateBrief(ctx context.Context, topic, status string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO briefs (id, topic, status) VALUES (?, ?, ?)`,
		id, topic, status)
	if err != nil {
		return "", fmt.Errorf("insert brief: %w", err)
	}
	return id, nil
}

// UpdateBrief sets the status and, when non-empty, the summary.
func (s *Store) UpdateBrief(ctx context.Context, id, status, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE briefs SET status = ?, summary = CASE WHEN ? != '' THEN ? ELSE summary END,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, summary, summary, id)
	if err != nil {
		return fmt.Errorf("update brief: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fault.New(fault.KindNotFound, "brief %q not found", id)
	}
	return nil
}

// GetBrief loads one brief by id.
func (s *Store) GetBrief(ctx context.Context, id string) (*Brief, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b Brief
	err := s.db.QueryRowContext(ctx,
		`SELECT id, topic, summary, status, created_at FROM briefs WHERE id = ?`,
		id).Scan(&b.ID, &b.Topic, &b.Summary, &b.Status, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.New(fault.KindNotFound, "brief %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query brief: %w", err)
	}
	return &b, nil
}

// ListBriefs returns all briefs, newest first.
func (s *Store) ListBriefs(ctx context.Context) ([]*Brief, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, summary, status, created_at FROM briefs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query briefs: %w", err)
	}
	defer rows.Close()

	var briefs []*Brief
	for rows.Next() {
		var b Brief
		if err := rows.Scan(&b.ID, &b.Topic, &b.Summary, &b.Status, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan brief: %w", err)
		}
		briefs = append(briefs, &b)
	}
	return briefs, rows.Err()
}

// AddRepoReview persists one candidate analysis and its findings as a
// unit. Reviews land incrementally while the brief is still running.
func (s *Store) AddRepoReview(ctx context.Context, review *RepoReview, findings []string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if review.ID == "" {
		review.ID = uuid.New().String()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO repo_reviews (id, brief_id, url, notes) VALUES (?, ?, ?, ?)`,
		review.ID, review.BriefID, review.URL, review.Notes)
	if err != nil {
		return fmt.Errorf("insert repo review: %w", err)
	}

	for _, text := range findings {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO findings (id, brief_id, text, source_review_id) VALUES (?, ?, ?, ?)`,
			uuid.New().String(), review.BriefID, text, review.ID)
		if err != nil {
			return fmt.Errorf("insert finding: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit repo review: %w", err)
	}
	return nil
}

// ListRepoReviews returns the reviews persisted for a brief so far.
func (s *Store) ListRepoReviews(ctx context.Context, briefID string) ([]*RepoReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, brief_id, url, notes FROM repo_reviews WHERE brief_id = ?`, briefID)
	if err != nil {
		return nil, fmt.Errorf("query repo reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*RepoReview
	for rows.Next() {
		var r RepoReview
		if err := rows.Scan(&r.ID, &r.BriefID, &r.URL, &r.Notes); err != nil {
			return nil, fmt.Errorf("scan repo review: %w", err)
		}
		reviews = append(reviews, &r)
	}
	return reviews, rows.Err()
}

// ListFindings returns the findings persisted for a brief so far.
func (s *Store) ListFindings(ctx context.Context, briefID string) ([]*Finding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, brief_id, text, source_review_id FROM findings WHERE brief_id = ?`, briefID)
	if err != nil {
		return nil, fmt.Errorf("query findings: %w", err)
	}
	defer rows.Close()

	var findings []*Finding
	for rows.Next() {
		var f Finding
		if err := rows.Scan(&f.ID, &f.BriefID, &f.Text, &f.SourceReviewID); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		findings = append(findings, &f)
	}
	return findings, rows.Err()
}
