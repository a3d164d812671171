package utils

import (
	"bytes"
	"strings"
	"testing"
)

func captured(level DiagnosticLevel) (*DiagnosticSystem, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	d := NewDiagnosticSystem(level)
	d.SetOutput(&out, &errOut)
	return d, &out, &errOut
}

func TestDiagnosticSystem_Levels(t *testing.T) {
	d, out, errOut := captured(DiagnosticInfo)

	d.Error("broken %s", "file")
	d.Warn("careful")
	d.Info("hello")
	d.Success("done")
	d.Verbose("hidden")
	d.Debug("hidden too")

	if errOut.String() != "[ERROR] broken file\n" {
		t.Errorf("Unexpected error output: %q", errOut.String())
	}
	want := "[WARN] careful\n[INFO] hello\n[OK] done\n"
	if out.String() != want {
		t.Errorf("Expected %q, got %q", want, out.String())
	}
}

func TestDiagnosticSystem_Quiet(t *testing.T) {
	d, out, errOut := captured(DiagnosticError)
	d.Info("hidden")
	d.Section("hidden")
	d.Summary("hidden", map[string]interface{}{"a": 1})
	d.Error("shown")

	if out.Len() != 0 {
		t.Errorf("Expected no normal output, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "shown") {
		t.Errorf("Expected the error to be shown, got %q", errOut.String())
	}
}

func TestDiagnosticSystem_Summary(t *testing.T) {
	d, out, _ := captured(DiagnosticInfo)
	d.Summary("Summary", map[string]interface{}{"updated": 2, "failed": 0, "skipped": 1})

	want := "\nSummary\n   failed: 0\n   skipped: 1\n   updated: 2\n"
	if out.String() != want {
		t.Errorf("Expected %q, got %q", want, out.String())
	}
}

func TestLevelFromFlags(t *testing.T) {
	tests := []struct {
		quiet, verbose, debug bool
		want                  DiagnosticLevel
	}{
		{false, false, false, DiagnosticInfo},
		{true, false, false, DiagnosticError},
		{false, true, false, DiagnosticVerbose},
		{true, true, true, DiagnosticDebug},
	}
	for _, tt := range tests {
		if got := LevelFromFlags(tt.quiet, tt.verbose, tt.debug); got != tt.want {
			t.Errorf("LevelFromFlags(%v, %v, %v) = %v, want %v", tt.quiet, tt.verbose, tt.debug, got, tt.want)
		}
	}
}
