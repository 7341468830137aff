package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG msg=dbg a=1",
		"level=INFO msg=inf b=2",
		"level=WARN msg=wrn c=3",
		"level=ERROR msg=err d=4",
	} {
		assert.Contains(t, out, want)
	}
}

func TestSlogLogger_With(t *testing.T) {
	log, buf := newTestLogger(t)

	log.With("module", "auth").Info(context.Background(), "login", "user_id", 7)

	out := buf.String()
	assert.Contains(t, out, "module=auth")
	assert.Contains(t, out, "user_id=7")
}

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		name   string
		format string
		want   string
	}{
		{name: "json", format: FormatJSON, want: `"msg":"hello"`},
		{name: "text", format: FormatText, want: "msg=hello"},
		{name: "console", format: FormatConsole, want: "INF hello"},
		{name: "unknown falls back to json", format: "xml", want: `"msg":"hello"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			New(&buf, tt.format, "info").Info(context.Background(), "hello", "k", "v")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestNew_LevelFilters(t *testing.T) {
	for _, format := range []string{FormatJSON, FormatConsole} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(&buf, format, "warn")
			l.Info(context.Background(), "quiet")
			assert.Empty(t, buf.String())

			l.Warn(context.Background(), "loud")
			assert.Contains(t, buf.String(), "loud")
		})
	}
}

func TestNop(t *testing.T) {
	l := NewNop()
	assert.NotPanics(t, func() {
		l.With("k", "v").Error(context.TODO(), "ignored", "err", "x")
	})
}
