package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("json when not a terminal", func(t *testing.T) {
		var buf bytes.Buffer
		l := newWithWriter(&buf, false, slog.LevelInfo)
		l.Info("booked", "date", "2026-10-19")

		var line map[string]any
		if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
			t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
		}
		if line["msg"] != "booked" {
			t.Errorf("msg = %v, want %v", line["msg"], "booked")
		}
		if line["date"] != "2026-10-19" {
			t.Errorf("date = %v, want %v", line["date"], "2026-10-19")
		}
	})

	t.Run("text on a terminal", func(t *testing.T) {
		var buf bytes.Buffer
		l := newWithWriter(&buf, true, slog.LevelInfo)
		l.Info("booked")
		if !strings.Contains(buf.String(), "msg=booked") {
			t.Errorf("text output = %q, want msg=booked", buf.String())
		}
	})

	t.Run("debug filtered at info", func(t *testing.T) {
		var buf bytes.Buffer
		l := newWithWriter(&buf, true, slog.LevelInfo)
		l.Debug("noise")
		if buf.Len() != 0 {
			t.Errorf("debug line written at info level: %q", buf.String())
		}
	})
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}
}
