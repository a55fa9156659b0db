// Package history stores booking attempts in Postgres so past runs can be
// inspected with the history command.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/moffi-scheduler/internal/db"
)

// Attempt is one order attempt made by a run.
type Attempt struct {
	ID        int64
	RunID     uuid.UUID
	Kind      string // desk or parking
	City      string
	Workspace string
	Desk      string
	Date      time.Time
	Outcome   string
	Detail    string
	OrderID   string
	CreatedAt time.Time
}

// Store is the subset of *db.DB the repo uses.
type Store interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (db.Rows, error)
}

type Repo struct{ db Store }

func NewRepo(d Store) *Repo { return &Repo{db: d} }

func (r *Repo) Record(ctx context.Context, a Attempt) error {
	if a.Kind == "" || a.Outcome == "" {
		return fmt.Errorf("history: kind and outcome required")
	}
	var orderID *string
	if a.OrderID != "" {
		orderID = &a.OrderID
	}
	err := r.db.Exec(ctx, `
INSERT INTO booking_attempts(run_id,kind,city,workspace,desk,date,outcome,detail,order_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.RunID, a.Kind, a.City, a.Workspace, a.Desk, a.Date.Format(time.DateOnly), a.Outcome, a.Detail, orderID,
	)
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

// ListRecent returns the latest attempts, newest first.
func (r *Repo) ListRecent(ctx context.Context, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
SELECT id,run_id,kind,city,workspace,desk,date,outcome,detail,order_id,created_at
FROM booking_attempts
ORDER BY created_at DESC, id DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, db.WrapNotFound(err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		var orderID *string
		if err := rows.Scan(
			&a.ID, &a.RunID, &a.Kind, &a.City, &a.Workspace, &a.Desk, &a.Date, &a.Outcome, &a.Detail, &orderID, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		if orderID != nil {
			a.OrderID = *orderID
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
