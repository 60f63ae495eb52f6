// Package logfields holds the canonical slog attribute keys used across
// binsweep so that log output stays stable for anyone grepping or ingesting it.
package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID         = "run_id"
	KeyProject       = "project"
	KeyUnit          = "unit"
	KeyPath          = "path"
	KeyOutput        = "output"
	KeyOutputKind    = "output_kind"
	KeyConfiguration = "configuration"
	KeyPlatform      = "platform"
	KeyContainer     = "container"
	KeyStage         = "stage"
	KeyCount         = "count"
	KeyFiles         = "files"
	KeyBytes         = "bytes"
	KeyDurationMS    = "duration_ms"
	KeyWorkers       = "workers"
	KeyBackend       = "backend"
	KeyDryRun        = "dry_run"
	KeyError         = "error"
)

func RunID(id string) slog.Attr { return slog.String(KeyRunID, id) }
func Project(name string) slog.Attr { return slog.String(KeyProject, name) }
func Unit(path string) slog.Attr { return slog.String(KeyUnit, path) }
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }
func Output(p string) slog.Attr { return slog.String(KeyOutput, p) }
func OutputKind(k string) slog.Attr { return slog.String(KeyOutputKind, k) }
func Configuration(cfg string) slog.Attr { return slog.String(KeyConfiguration, cfg) }
func Platform(p string) slog.Attr { return slog.String(KeyPlatform, p) }
func Container(p string) slog.Attr { return slog.String(KeyContainer, p) }
func Stage(name string) slog.Attr { return slog.String(KeyStage, name) }
func Count(n int) slog.Attr { return slog.Int(KeyCount, n) }
func Files(n int) slog.Attr { return slog.Int(KeyFiles, n) }
func Bytes(n int64) slog.Attr { return slog.Int64(KeyBytes, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Workers(n int) slog.Attr { return slog.Int(KeyWorkers, n) }
func Backend(b string) slog.Attr { return slog.String(KeyBackend, b) }
func DryRun(v bool) slog.Attr { return slog.Bool(KeyDryRun, v) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// LevelVerbose sits between debug and info. It carries the per-directory
// chatter that is too noisy for info but useful when tracing a run.
const LevelVerbose = slog.Level(-2)
