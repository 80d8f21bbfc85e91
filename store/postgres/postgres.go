// Package postgres implements flow topology persistence for askit using
// PostgreSQL via pgx. It accepts an externally-owned *pgxpool.Pool via
// constructor injection; the caller creates and closes the pool.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/go-askit/askit"
)

// FlowStore persists flow topology (§3.1: names, nodes, edges — not
// in-flight message state) in PostgreSQL.
type FlowStore struct {
	pool *pgxpool.Pool
}

// New creates a FlowStore using an existing pgxpool.Pool. The caller
// owns the pool and is responsible for closing it.
func New(pool *pgxpool.Pool) *FlowStore {
	return &FlowStore{pool: pool}
}

// Init creates the flows table. Safe to call multiple times.
func (s *FlowStore) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS flows (
		name TEXT PRIMARY KEY,
		data JSONB NOT NULL,
		updated_at BIGINT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("postgres: init: %w", err)
	}
	return nil
}

// SaveFlow upserts a flow's full JSON representation.
func (s *FlowStore) SaveFlow(ctx context.Context, flow askit.Flow) error {
	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("postgres: marshal flow: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO flows (name, data, updated_at) VALUES ($1, $2::jsonb, $3)
		 ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		flow.Name, string(data), askit.NowUnix())
	if err != nil {
		return fmt.Errorf("postgres: save flow: %w", err)
	}
	return nil
}

// LoadFlow returns the flow stored under name.
func (s *FlowStore) LoadFlow(ctx context.Context, name string) (askit.Flow, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM flows WHERE name = $1`, name).Scan(&data)
	if err == pgx.ErrNoRows {
		return askit.Flow{}, fmt.Errorf("postgres: load flow %q: not found", name)
	}
	if err != nil {
		return askit.Flow{}, fmt.Errorf("postgres: load flow: %w", err)
	}

	var flow askit.Flow
	if err := json.Unmarshal(data, &flow); err != nil {
		return askit.Flow{}, fmt.Errorf("postgres: unmarshal flow: %w", err)
	}
	return flow, nil
}

// ListFlows returns every stored flow name, alphabetically.
func (s *FlowStore) ListFlows(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM flows ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list flows: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("postgres: scan flow name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteFlow removes a stored flow. A missing name is not an error.
func (s *FlowStore) DeleteFlow(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM flows WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("postgres: delete flow: %w", err)
	}
	return nil
}

// Close is a no-op. The caller owns the pool and manages its lifecycle.
func (s *FlowStore) Close() error {
	return nil
}
