// Package sqlite implements flow topology persistence for askit using
// pure-Go SQLite. Zero CGO required.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-askit/askit"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// StoreOption configures a FlowStore.
type StoreOption func(*FlowStore)

// WithLogger sets a structured logger for the store. When set, the
// store emits debug logs for every operation including timing and key
// parameters. If not set, no logs are emitted.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *FlowStore) { s.logger = l }
}

// FlowStore persists flow topology (§3.1: names, nodes, edges — not
// in-flight message state) to a local SQLite file.
type FlowStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// nopLogger is a logger that discards all output.
var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// New creates a FlowStore using a local SQLite file at dbPath. It opens
// a single shared connection pool with SetMaxOpenConns(1) so that all
// goroutines serialize through one connection, eliminating SQLITE_BUSY
// errors caused by concurrent writers opening independent connections.
func New(dbPath string, opts ...StoreOption) *FlowStore {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		// sql.Open only fails when the driver is not registered; with the
		// blank import above that never happens.
		panic(fmt.Sprintf("sqlite: open driver: %v", err))
	}
	db.SetMaxOpenConns(1)
	s := &FlowStore{db: db, logger: nopLogger}
	for _, o := range opts {
		o(s)
	}
	s.logger.Debug("sqlite: store opened", "path", dbPath)
	return s
}

// Init creates the flows table.
func (s *FlowStore) Init(ctx context.Context) error {
	start := time.Now()
	s.logger.Debug("sqlite: init started")
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS flows (
		name TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	s.logger.Info("sqlite: init completed", "duration", time.Since(start))
	return nil
}

// SaveFlow upserts a flow's full JSON representation.
func (s *FlowStore) SaveFlow(ctx context.Context, flow askit.Flow) error {
	start := time.Now()
	s.logger.Debug("sqlite: save flow", "name", flow.Name)

	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("marshal flow: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO flows (name, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		flow.Name, string(data), askit.NowUnix(),
	)
	if err != nil {
		s.logger.Error("sqlite: save flow failed", "name", flow.Name, "error", err, "duration", time.Since(start))
		return fmt.Errorf("save flow: %w", err)
	}
	s.logger.Debug("sqlite: save flow ok", "name", flow.Name, "duration", time.Since(start))
	return nil
}

// LoadFlow returns the flow stored under name.
func (s *FlowStore) LoadFlow(ctx context.Context, name string) (askit.Flow, error) {
	start := time.Now()
	s.logger.Debug("sqlite: load flow", "name", name)

	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM flows WHERE name = ?`, name).Scan(&data)
	if err == sql.ErrNoRows {
		s.logger.Debug("sqlite: load flow not found", "name", name, "duration", time.Since(start))
		return askit.Flow{}, fmt.Errorf("load flow %q: not found", name)
	}
	if err != nil {
		s.logger.Error("sqlite: load flow failed", "name", name, "error", err, "duration", time.Since(start))
		return askit.Flow{}, fmt.Errorf("load flow: %w", err)
	}

	var flow askit.Flow
	if err := json.Unmarshal([]byte(data), &flow); err != nil {
		return askit.Flow{}, fmt.Errorf("unmarshal flow: %w", err)
	}
	s.logger.Debug("sqlite: load flow ok", "name", name, "duration", time.Since(start))
	return flow, nil
}

// ListFlows returns every stored flow name, alphabetically.
func (s *FlowStore) ListFlows(ctx context.Context) ([]string, error) {
	start := time.Now()
	s.logger.Debug("sqlite: list flows")

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM flows ORDER BY name`)
	if err != nil {
		s.logger.Error("sqlite: list flows failed", "error", err, "duration", time.Since(start))
		return nil, fmt.Errorf("list flows: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan flow name: %w", err)
		}
		names = append(names, name)
	}
	s.logger.Debug("sqlite: list flows ok", "count", len(names), "duration", time.Since(start))
	return names, rows.Err()
}

// DeleteFlow removes a stored flow. A missing name is not an error.
func (s *FlowStore) DeleteFlow(ctx context.Context, name string) error {
	start := time.Now()
	s.logger.Debug("sqlite: delete flow", "name", name)

	_, err := s.db.ExecContext(ctx, `DELETE FROM flows WHERE name = ?`, name)
	if err != nil {
		s.logger.Error("sqlite: delete flow failed", "name", name, "error", err, "duration", time.Since(start))
		return fmt.Errorf("delete flow: %w", err)
	}
	s.logger.Debug("sqlite: delete flow ok", "name", name, "duration", time.Since(start))
	return nil
}

// Close closes the underlying database connection.
func (s *FlowStore) Close() error {
	s.logger.Debug("sqlite: closing store")
	err := s.db.Close()
	if err != nil {
		s.logger.Error("sqlite: close failed", "error", err)
	}
	return err
}
