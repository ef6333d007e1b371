package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jmbish04/lightbulb-aquarium/internal/fault"
)

// CreateProjectWithPlan inserts a project row and its plan in one
// transaction: either both land or neither is authoritative.
func (s *Store) CreateProjectWithPlan(ctx context.Context, p *Project, planBody string) (planID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = ProjectPlanned
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, source_url, status) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.SourceURL, p.Status)
	if err != nil {
		return "", fmt.Errorf("insert project: %w", err)
	}

	planID = uuid.New().String()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO plans (id, project_id, body) VALUES (?, ?, ?)`,
		planID, p.ID, planBody)
	if err != nil {
		return "", fmt.Errorf("insert plan: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("commit project and plan: %w", err)
	}

	s.logger.Info("persisted project with plan", "project_id", p.ID, "plan_id", planID)
	return planID, nil
}

// UpdateProjectStatus moves a project through its lifecycle.
func (s *Store) UpdateProjectStatus(ctx context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fault.New(fault.KindNotFound, "project %q not found", id)
	}
	return nil
}

// GetProject loads one project by id.
func (s *Store) GetProject(ctx context.Context, id string) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p Project
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, source_url, status, created_at FROM projects WHERE id = ?`,
		id).Scan(&p.ID, &p.Name, &p.Description, &p.SourceURL, &p.Status, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.New(fault.KindNotFound, "project %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query project: %w", err)
	}
	return &p, nil
}

// GetPlan loads the plan attached to a project.
func (s *Store) GetPlan(ctx context.Context, projectID string) (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p Plan
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, body, created_at FROM plans WHERE project_id = ? ORDER BY created_at DESC LIMIT 1`,
		projectID).Scan(&p.ID, &p.ProjectID, &p.Body, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.New(fault.KindNotFound, "no plan for project %q", projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("query plan: %w", err)
	}
	return &p, nil
}
