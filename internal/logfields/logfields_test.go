package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, "abc", RunID("abc")},
		{"Project", KeyProject, "App", Project("App")},
		{"Unit", KeyUnit, "/r/A.csproj", Unit("/r/A.csproj")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Output", KeyOutput, "/r/bin", Output("/r/bin")},
		{"OutputKind", KeyOutputKind, "OutDir", OutputKind("OutDir")},
		{"Configuration", KeyConfiguration, "Debug", Configuration("Debug")},
		{"Platform", KeyPlatform, "x64", Platform("x64")},
		{"Container", KeyContainer, "/r", Container("/r")},
		{"Stage", KeyStage, "resolve", Stage("resolve")},
		{"Backend", KeyBackend, "dotnet", Backend("dotnet")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if v := Count(3); v.Key != KeyCount || v.Value.Int64() != 3 {
		t.Fatalf("Count mismatch: %v", v)
	}
	if v := Files(7); v.Key != KeyFiles {
		t.Fatalf("Files key mismatch: %s", v.Key)
	}
	if v := Bytes(1 << 20); v.Key != KeyBytes || v.Value.Int64() != 1<<20 {
		t.Fatalf("Bytes mismatch: %v", v)
	}
	if v := DurationMS(12.5); v.Key != KeyDurationMS {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
	if v := Workers(4); v.Key != KeyWorkers {
		t.Fatalf("Workers key mismatch: %s", v.Key)
	}
	if v := DryRun(true); v.Key != KeyDryRun || !v.Value.Bool() {
		t.Fatalf("DryRun mismatch: %v", v)
	}
}

func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	attr = Error(errors.New("boom"))
	if attr.Value.String() != "boom" {
		t.Fatalf("Expected 'boom', got %s", attr.Value.String())
	}
}

func TestLevelVerboseOrdering(t *testing.T) {
	if !(LevelVerbose > slog.LevelDebug && LevelVerbose < slog.LevelInfo) {
		t.Fatalf("LevelVerbose %d should sit between debug and info", LevelVerbose)
	}
}
