package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/danieljhkim/binsweep/internal/clock"
	"github.com/danieljhkim/binsweep/internal/config"
	"github.com/danieljhkim/binsweep/internal/discover"
	"github.com/danieljhkim/binsweep/internal/engine"
	"github.com/danieljhkim/binsweep/internal/fsops"
	"github.com/danieljhkim/binsweep/internal/gitx"
	"github.com/danieljhkim/binsweep/internal/logfields"
	"github.com/danieljhkim/binsweep/internal/metrics"
	"github.com/danieljhkim/binsweep/internal/msbuild"
	"github.com/danieljhkim/binsweep/internal/planner"
)

// newEngine creates a new engine with real implementations of all dependencies.
func newEngine(opts *config.Options, recorder metrics.Recorder, logger *slog.Logger) (*engine.Engine, error) {
	backend, err := msbuild.NewLocator().Locate(opts.MSBuild)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", engine.ErrNoBackend, err)
	}
	logger.Info("Using build backend", logfields.Backend(backend.String()))

	fs := fsops.NewRealFS()
	client := msbuild.NewClient(backend, nil, opts.QueryTimeout)
	disc := discover.New(fs, discover.Options{
		Depth:          opts.Depth,
		Configurations: opts.Configurations,
		IgnoreFile:     opts.IgnoreFile,
	}, logger)

	return engine.New(fs, client, disc, gitx.NewRealRepo(), recorder, &clock.RealClock{}, logger), nil
}

// newRunRequest maps normalized options onto an engine request.
func newRunRequest(opts *config.Options, confirmer engine.Confirmer) (*engine.RunRequest, error) {
	level, err := engine.ParseConfirmLevel(opts.Confirm)
	if err != nil {
		return nil, err
	}
	return &engine.RunRequest{
		Roots:    opts.Roots,
		DryRun:   opts.DryRunMode(),
		Parallel: opts.Parallel,
		Clean: engine.Clean{
			BuildOutput:  opts.Clean.BuildOutput,
			Intermediate: opts.Clean.Intermediate,
			Packages:     opts.Clean.Nupkg,
		},
		Policy: planner.Policy{
			ValidateStructure: opts.Policy.ValidateStructure,
			NonCurrentOnly:    opts.Policy.NonCurrentOnly,
		},
		EnumerationDepth: opts.EnumerationDepth,
		CaseSensitive:    opts.CaseSensitivePaths,
		Execute: engine.ExecuteOptions{
			DeleteEmptyDirs:  opts.Policy.DeleteEmptyDirs,
			FilesOnly:        opts.Policy.FilesOnly,
			EnumerationDepth: opts.EnumerationDepth,
			Level:            level,
		},
		Confirmer: confirmer,
	}, nil
}

// parseLogLevel maps a configured level name onto a slog level.
func parseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "verbose":
		return logfields.LevelVerbose, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: invalid log level %q", config.ErrValidation, name)
	}
}

// newLogger builds the run logger writing to w.
func newLogger(opts config.LogOptions, w io.Writer) (*slog.Logger, error) {
	level, err := parseLogLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	handlerOpts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == logfields.LevelVerbose {
					a.Value = slog.StringValue("VERBOSE")
				}
			}
			return a
		},
	}
	if strings.EqualFold(opts.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
}

// formatJSON formats a value as JSON.
func formatJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
