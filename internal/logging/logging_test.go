package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestJSONLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	log.With(String("band", "r")).Info(context.Background(), "sky computed",
		Float64("sky_counts", 1035.8), Int("npix", 16), Err(errors.New("boom")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if rec["msg"] != "sky computed" {
		t.Fatalf("msg = %v, want sky computed", rec["msg"])
	}
	if rec["band"] != "r" || rec["error"] != "boom" {
		t.Fatalf("missing fields in %v", rec)
	}
	if rec["npix"] != float64(16) {
		t.Fatalf("npix = %v, want 16", rec["npix"])
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})
	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "hidden too")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %q", buf.String())
	}
	log.Warn(context.Background(), "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("warn message missing: %q", buf.String())
	}
}

func TestWithRunLoggerKeepsExistingID(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})

	ctx, _ := WithRunLogger(context.Background(), base)
	id := RunIDFromContext(ctx)
	if id == "" {
		t.Fatalf("expected run_id on context")
	}

	ctx2, log := WithRunLogger(ctx, base)
	if got := RunIDFromContext(ctx2); got != id {
		t.Fatalf("run_id changed from %q to %q", id, got)
	}
	log.Info(ctx2, "hello")
	if !strings.Contains(buf.String(), id) {
		t.Fatalf("log line missing run_id %q: %q", id, buf.String())
	}
}

func TestNoopLoggerIsSilent(t *testing.T) {
	log := Noop().With(String("k", "v"))
	log.Error(context.Background(), "ignored")
}
