package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func decode(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("not json: %v\n%s", err, b)
	}
	return m
}

func TestHandler_CompactLine(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Options{})
	l.Info("game over", "score", 40, "cause", "wall", "err", errors.New("boom"))

	out := buf.Bytes()
	if bytes.Count(out, []byte("\n")) != 1 {
		t.Fatalf("compact output spans lines: %q", out)
	}
	m := decode(t, out)
	if m["msg"] != "game over" || m["level"] != "INFO" {
		t.Fatalf("record=%v", m)
	}
	if m["score"] != float64(40) || m["cause"] != "wall" || m["err"] != "boom" {
		t.Fatalf("attrs=%v", m)
	}
	if _, ok := m["time"].(string); !ok {
		t.Fatalf("missing time: %v", m)
	}
}

func TestHandler_Pretty(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Options{Pretty: true}).Warn("slow", "ms", 12)
	if !strings.Contains(buf.String(), "\n  \"msg\": \"slow\"") {
		t.Fatalf("not indented: %s", buf.String())
	}
	decode(t, buf.Bytes())
}

func TestHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Options{Level: slog.LevelWarn})
	l.Info("hidden")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("below-level records written: %s", buf.String())
	}
	l.Error("shown")
	if buf.Len() == 0 {
		t.Fatalf("error record dropped")
	}
}

func TestHandler_GroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Options{}).
		With("session", "abc").
		WithGroup("tick").
		With("n", 3)
	l.Info("step", "head", slog.GroupValue(slog.Int("x", 1), slog.Int("y", 2)))

	m := decode(t, buf.Bytes())
	if m["session"] != "abc" {
		t.Fatalf("top-level attr lost: %v", m)
	}
	tick, ok := m["tick"].(map[string]any)
	if !ok {
		t.Fatalf("no tick group: %v", m)
	}
	if tick["n"] != float64(3) {
		t.Fatalf("group attr=%v", tick)
	}
	head, ok := tick["head"].(map[string]any)
	if !ok || head["x"] != float64(1) || head["y"] != float64(2) {
		t.Fatalf("nested group=%v", tick)
	}
}

func TestHandler_UnmarshalableValueStillLogs(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Options{}).Info("odd", "ch", make(chan int))
	m := decode(t, buf.Bytes())
	if m["msg"] != "odd" {
		t.Fatalf("fallback record=%v", m)
	}
}

func TestHandler_Source(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Options{AddSource: true}).Info("here")
	m := decode(t, buf.Bytes())
	src, _ := m["source"].(string)
	if !strings.HasPrefix(src, "handler_test.go:") {
		t.Fatalf("source=%q", src)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("parse %q=%v want=%v", in, got, want)
		}
	}
}
