package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// SaveArtifact persists one selected fan-out output. Every call inserts
// a new row; two runs against the same topic produce two rows.
func (s *Store) SaveArtifact(ctx context.Context, topic, body string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (id, topic, body) VALUES (?, ?, ?)`,
		id, topic, body)
	if err != nil {
		return "", fmt.Errorf("insert artifact: %w", err)
	}
	return id, nil
}

// ListArtifacts returns the artifacts persisted for a topic, newest first.
func (s *Store) ListArtifacts(ctx context.Context, topic string) ([]*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, body, created_at FROM artifacts WHERE topic = ? ORDER BY created_at DESC`,
		topic)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []*Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.ID, &a.Topic, &a.Body, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		artifacts = append(artifacts, &a)
	}
	return artifacts, rows.Err()
}
