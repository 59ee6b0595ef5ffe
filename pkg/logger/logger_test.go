package logger

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

func TestInitAndGet(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("Sync: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("Get returned nil after Init")
	}

	// Re-initialization replaces the global logger in place.
	if err := Init(); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	if Get() == nil {
		t.Fatal("Get returned nil after re-Init")
	}
}

func TestLogMethods(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	ctx := context.Background()
	l := Get()
	l.Debug(ctx, "debug line", Int("n", 1))
	l.Info(ctx, "info line", String("patient", "patient-1"))
	l.Warn(ctx, "warn line", Float64("spo2", 88.5), Bool("acknowledged", false))
	l.Error(ctx, "error line", Error(errors.New("boom")), Any("detail", map[string]int{"a": 1}))
}

func TestFieldConstructors(t *testing.T) {
	cases := []struct {
		field Field
		key   string
		value interface{}
	}{
		{String("patient", "patient-1"), "patient", "patient-1"},
		{Int("retries", 2), "retries", 2},
		{Bool("acknowledged", true), "acknowledged", true},
		{Float64("temp", 36.6), "temp", 36.6},
	}
	for _, c := range cases {
		if c.field.Key != c.key {
			t.Errorf("key = %q, want %q", c.field.Key, c.key)
		}
		if c.field.Value != c.value {
			t.Errorf("value for %q = %v, want %v", c.key, c.field.Value, c.value)
		}
	}
}

func TestNamed(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	named := Named("classifier")
	if named == nil {
		t.Fatal("Named returned nil")
	}
	named.Info(context.Background(), "grouped message", String("reading", "reading-1"))
}

func TestSetLevelString(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	for _, lvl := range []string{"debug", "info", "warn", "warning", "error", "", " INFO "} {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("SetLevelString(%q): %v", lvl, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("SetLevelString accepted an unknown level")
	}

	SetLevel(slog.LevelInfo)
}
