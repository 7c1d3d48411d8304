package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_AddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentWorker, JSON: true, Output: &buf})

	logger.InfoContext(context.Background(), "started", "queue", "q1")
	logger.WithComponent(ComponentSheets).Warn("slow")
	logger.Debug("details")

	lines := decodeLines(t, &buf)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0][FieldComponent] != ComponentWorker || lines[0]["queue"] != "q1" {
		t.Errorf("first line = %v", lines[0])
	}
	if lines[1][FieldComponent] != ComponentSheets {
		t.Errorf("second line component = %v", lines[1][FieldComponent])
	}
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, JSON: true, Output: &buf})

	logger.Info("hidden")
	logger.Error("shown")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["msg"] != "shown" {
		t.Errorf("lines = %v", lines)
	}
	if lines[0][FieldComponent] != ComponentApp {
		t.Errorf("default component = %v, want %s", lines[0][FieldComponent], ComponentApp)
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got == nil || got.Component() != ComponentApp {
		t.Errorf("FromContext(empty) = %+v", got)
	}

	logger := New(Config{Component: ComponentCLI, Output: &bytes.Buffer{}})
	ctx := NewContext(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("FromContext did not return the stored logger")
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentCLI, JSON: true, Output: &buf})
	sl := NewStructuredLogger(logger)
	ctx := context.Background()

	sl.LogTransition(ctx, "idle", "detecting")
	sl.LogTransactionCreated(ctx, "id-1", "expense", "45000", "food")
	sl.LogError(ctx, "save failed", errors.New("disk full"), ComponentStorage, OpCreate, nil)

	lines := decodeLines(t, &buf)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0][FieldFrom] != "idle" || lines[0][FieldTo] != "detecting" || lines[0][FieldComponent] != ComponentWorkflow {
		t.Errorf("transition line = %v", lines[0])
	}
	if lines[1][FieldTransactionID] != "id-1" || lines[1][FieldCategory] != "food" || lines[1][FieldOperation] != OpCreate {
		t.Errorf("created line = %v", lines[1])
	}
	if lines[2][FieldError] != "disk full" || lines[2][FieldComponent] != ComponentStorage {
		t.Errorf("error line = %v", lines[2])
	}
}
