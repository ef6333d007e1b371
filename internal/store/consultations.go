package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jmbish04/lightbulb-aquarium/internal/fault"
)

// CreateConsultation records a reported issue.
func (s *Store) CreateConsultation(ctx context.Context, question, contextText string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO consultations (id, question, context, status) VALUES (?, ?, ?, ?)`,
		id, question, contextText, ConsultReported)
	if err != nil {
		return "", fmt.Errorf("insert consultation: %w", err)
	}
	return id, nil
}

// UpdateConsultation advances the consultation and stores the response
// when non-empty.
func (s *Store) UpdateConsultation(ctx context.Context, id, status, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE consultations SET status = ?, response = CASE WHEN ? != '' THEN ? ELSE response END,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, response, response, id)
	if err != nil {
		return fmt.Errorf("update consultation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fault.New(fault.KindNotFound, "consultation %q not found", id)
	}
	return nil
}

// ListConsultations returns all consultations, newest first.
func (s *Store) ListConsultations(ctx context.Context) ([]*Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, context, response, status FROM consultations ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query consultations: %w", err)
	}
	defer rows.Close()

	var consultations []*Consultation
	for rows.Next() {
		var c Consultation
		if err := rows.Scan(&c.ID, &c.Question, &c.Context, &c.Response, &c.Status); err != nil {
			return nil, fmt.Errorf("scan consultation: %w", err)
		}
		consultations = append(consultations, &c)
	}
	return consultations, rows.Err()
}

// GetConsultation loads one consultation by id.
func (s *Store) GetConsultation(ctx context.Context, id string) (*Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var c Consultation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, question, context, response, status FROM consultations WHERE id = ?`,
		id).Scan(&c.ID, &c.Question, &c.Context, &c.Response, &c.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.New(fault.KindNotFound, "consultation %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query consultation: %w", err)
	}
	return &c, nil
}
