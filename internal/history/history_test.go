package history

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/example/moffi-scheduler/internal/db"
)

type fakeRows struct {
	rows [][]any
	i    int
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) Next() bool {
	r.i++
	return r.i <= len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.i-1]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *int64:
			*d = v.(int64)
		case *uuid.UUID:
			*d = v.(uuid.UUID)
		case *string:
			*d = v.(string)
		case *time.Time:
			*d = v.(time.Time)
		case **string:
			if v != nil {
				s := v.(string)
				*d = &s
			}
		default:
			return errors.New("unsupported destination")
		}
	}
	return nil
}

type fakeStore struct {
	sql  string
	args []any
	rows *fakeRows
}

func (s *fakeStore) Exec(_ context.Context, sql string, args ...any) error {
	s.sql, s.args = sql, args
	return nil
}

func (s *fakeStore) Query(_ context.Context, sql string, args ...any) (db.Rows, error) {
	s.sql, s.args = sql, args
	return s.rows, nil
}

func TestRecord(t *testing.T) {
	store := &fakeStore{}
	repo := NewRepo(store)
	run := uuid.New()

	err := repo.Record(context.Background(), Attempt{
		RunID:     run,
		Kind:      "desk",
		City:      "Paris",
		Workspace: "Aquarium",
		Desk:      "A1",
		Date:      time.Date(2024, 3, 6, 7, 0, 0, 0, time.UTC),
		Outcome:   "unavailable",
		Detail:    "estimate failed",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !strings.Contains(store.sql, "INSERT INTO booking_attempts") {
		t.Errorf("sql = %q", store.sql)
	}
	if store.args[0] != run || store.args[5] != "2024-03-06" {
		t.Errorf("args = %v", store.args)
	}
	if id, ok := store.args[8].(*string); !ok || id != nil {
		t.Errorf("order_id = %v, want NULL", store.args[8])
	}

	if err := repo.Record(context.Background(), Attempt{Kind: "desk"}); err == nil {
		t.Error("Record without outcome should fail")
	}
}

func TestListRecent(t *testing.T) {
	run := uuid.New()
	created := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	day := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{rows: &fakeRows{rows: [][]any{
		{int64(2), run, "desk", "Paris", "Aquarium", "A1", day, "booked", "", "o-1", created},
		{int64(1), run, "parking", "Paris", "Parking", "", day, "unavailable", "closed", nil, created},
	}}}

	got, err := NewRepo(store).ListRecent(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if store.args[0] != 50 {
		t.Errorf("limit = %v, want default 50", store.args[0])
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].OrderID != "o-1" || got[0].RunID != run || !got[0].Date.Equal(day) {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].OrderID != "" || got[1].Kind != "parking" {
		t.Errorf("second = %+v", got[1])
	}
}
