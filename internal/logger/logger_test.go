package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FormatAutoDetection(t *testing.T) {
	tests := []struct {
		env      string
		wantJSON bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(Config{Writer: &buf, Environment: tt.env, Level: slog.LevelInfo})
			l.Info("hello", "habit_id", "habit-1")

			var decoded map[string]any
			isJSON := json.Unmarshal(buf.Bytes(), &decoded) == nil
			assert.Equal(t, tt.wantJSON, isJSON, "output: %s", buf.String())
			assert.Contains(t, buf.String(), "habit-1")
		})
	}
}

func TestNew_ExplicitFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Format: formatJSON, Environment: "development"})
	l.Info("explicit")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "explicit", decoded["msg"])
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "streakup.log")

	tests := []struct {
		name   string
		format string
	}{
		{"json console", formatJSON},
		{"pretty console", formatPretty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_ = os.Remove(path)

			var console bytes.Buffer
			l := New(Config{
				Writer: &console,
				Format: tt.format,
				Level:  slog.LevelDebug,
				File:   FileConfig{Path: path, MaxSizeMB: 1, MaxBackups: 1},
			})
			l.Info("habit completed", "user_id", "user-1", "current_streak", 3)
			require.NoError(t, l.Close())

			assert.Contains(t, console.String(), "habit completed")

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
			require.Len(t, lines, 1)

			// The file is always JSON, without color codes.
			var decoded map[string]any
			require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
			assert.Equal(t, "habit completed", decoded["msg"])
			assert.Equal(t, "user-1", decoded["user_id"])
			assert.InDelta(t, 3.0, decoded["current_streak"], 0)
		})
	}
}

func TestLogger_CloseWithoutFile(t *testing.T) {
	l := New(Config{Writer: &bytes.Buffer{}})
	assert.NoError(t, l.Close())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	ctx := context.Background()

	assert.False(t, h.Enabled(ctx, slog.LevelInfo))
	assert.True(t, h.Enabled(ctx, slog.LevelWarn))
	assert.True(t, h.Enabled(ctx, slog.LevelError))

	// Nil options default to info.
	d := NewPrettyHandler(&bytes.Buffer{}, nil)
	assert.False(t, d.Enabled(ctx, slog.LevelDebug))
	assert.True(t, d.Enabled(ctx, slog.LevelInfo))
}

func TestPrettyHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewPrettyHandler(&buf, nil))

	l.Warn("reorder stopped", "habit_id", "habit-9", "applied", 2)

	out := buf.String()
	assert.Contains(t, out, "WRN")
	assert.Contains(t, out, "reorder stopped")
	assert.Contains(t, out, "habit_id=habit-9")
	assert.Contains(t, out, "applied=2")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestPrettyHandler_GroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewPrettyHandler(&buf, nil))

	l.With("component", "jobs").
		WithGroup("run").
		Info("refreshed", "users", 3, slog.Group("totals", "habits", 7))

	out := buf.String()
	assert.Contains(t, out, "component=jobs")
	assert.Contains(t, out, "run.users=3")
	assert.Contains(t, out, "run.totals.habits=7")
}

func TestPrettyHandler_QuotesAwkwardStrings(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewPrettyHandler(&buf, nil))

	l.Info("msg", "name", "Drink water", "empty", "")

	out := buf.String()
	assert.Contains(t, out, `name="Drink water"`)
	assert.Contains(t, out, `empty=""`)
}

func TestPrettyHandler_WithSource(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{AddSource: true}))

	l.Info("with source")
	assert.Contains(t, buf.String(), "logger_test.go:")
}

func TestFormatLevel(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "DBG"},
		{slog.LevelInfo, "INF"},
		{slog.LevelWarn, "WRN"},
		{slog.LevelError, "ERR"},
	}
	for _, tt := range tests {
		got, _ := formatLevel(tt.level)
		assert.Equal(t, tt.want, got)
	}
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.Equal(t, "2025-01-02T03:04:05Z", formatValue(slog.TimeValue(ts)))
	assert.Equal(t, "1.5s", formatValue(slog.DurationValue(1500*time.Millisecond)))
	assert.Equal(t, "plain", formatValue(slog.StringValue("plain")))
	assert.Equal(t, "42", formatValue(slog.IntValue(42)))
	assert.Equal(t, "true", formatValue(slog.BoolValue(true)))
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Format: formatJSON})

	l.WithError(errors.New("disk full")).Error("save failed")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "disk full", decoded["error"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Format: formatPretty, Level: slog.LevelWarn})

	l.Debug("hidden debug")
	l.Info("hidden info")
	l.Warn("shown warn")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown warn")
}
