package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewZap_Levels(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l, sync := NewZap(&buf, tt.verbose)
			l.Debug("resolving", "package", "rg")
			l.Warn("binary missing", "package", "fd")
			sync()

			out := buf.String()
			if got := strings.Contains(out, "resolving"); got != tt.wantDebug {
				t.Errorf("debug present = %v, want %v; output:\n%s", got, tt.wantDebug, out)
			}
			if !strings.Contains(out, "binary missing") || !strings.Contains(out, "fd") {
				t.Errorf("warning missing from output:\n%s", out)
			}
		})
	}
}

func TestWith(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := With(FromZap(zap.New(core)), "run_id", "abc")
	l.Info("sync started")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["run_id"]; got != "abc" {
		t.Errorf("run_id = %v, want abc", got)
	}

	nop := With(Nop(), "k", "v")
	nop.Info("ignored")
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	l := Nop()
	if OrNop(l) != l {
		t.Error("OrNop should return a non-nil logger unchanged")
	}
}
