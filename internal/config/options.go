package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BINSWEEP_"

// ErrValidation indicates conflicting or malformed options.
var ErrValidation = errors.New("invalid options")

// Options is the full run configuration.
type Options struct {
	// Roots are directories, solutions or projects; empty means the
	// working directory
	Roots []string `yaml:"roots,omitempty"`

	// Delete removes the plan; without it the run is a dry run
	Delete bool `yaml:"delete"`

	// DryRun forces a dry run; conflicts with Delete
	DryRun bool `yaml:"dry_run"`

	// Force skips every confirmation and requires explicit roots
	Force bool `yaml:"force"`

	// Confirm is force, sln, proj or dir
	Confirm string `yaml:"confirm"`

	// Parallel is the query pool width; 0 is sequential
	Parallel int `yaml:"parallel"`

	// Depth is how many directory levels are scanned for solutions
	Depth int `yaml:"depth"`

	// MSBuild is an explicit msbuild.exe, MSBuild.dll or directory
	MSBuild string `yaml:"msbuild,omitempty"`

	// Configurations are assumed for projects without solution info
	Configurations []string `yaml:"configurations,omitempty"`

	Clean  CleanOptions  `yaml:"clean"`
	Policy PolicyOptions `yaml:"policy"`

	// EnumerationDepth caps recursion when sizing directories
	EnumerationDepth int `yaml:"enumeration_depth"`

	CaseSensitivePaths bool          `yaml:"case_sensitive_paths"`
	QueryTimeout       time.Duration `yaml:"query_timeout"`
	IgnoreFile         string        `yaml:"ignore_file,omitempty"`
	ReportFile         string        `yaml:"report_file,omitempty"`
	MetricsFile        string        `yaml:"metrics_file,omitempty"`

	Log LogOptions `yaml:"log"`
}

// CleanOptions selects output kinds.
type CleanOptions struct {
	BuildOutput  bool `yaml:"build_output"`
	Intermediate bool `yaml:"intermediate"`
	Nupkg        bool `yaml:"nupkg"`

	// Obj keeps intermediate cleanup on under NonCurrentOnly
	Obj bool `yaml:"obj"`
}

// PolicyOptions tunes candidate resolution and execution.
type PolicyOptions struct {
	ValidateStructure bool `yaml:"validate_structure"`
	NonCurrentOnly    bool `yaml:"non_current_only"`
	DeleteEmptyDirs   bool `yaml:"delete_empty_dirs"`
	FilesOnly         bool `yaml:"files_only"`
}

// LogOptions selects the log level and handler.
type LogOptions struct {
	// Level is debug, verbose, info, warning or error
	Level string `yaml:"level"`

	// Format is text or json
	Format string `yaml:"format"`
}

// Default returns the built-in defaults.
func Default() *Options {
	return &Options{
		Confirm:          "dir",
		Depth:            2,
		EnumerationDepth: 10,
		QueryTimeout:     2 * time.Minute,
		Clean: CleanOptions{
			BuildOutput:  true,
			Intermediate: true,
		},
		Policy: PolicyOptions{
			ValidateStructure: true,
		},
		Log: LogOptions{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load returns the defaults overlaid with path (when non-empty) and the
// BINSWEEP_* environment. .env and .env.local in the working directory are
// loaded first and never override variables that are already set.
func Load(path string, required bool) (*Options, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	opts := Default()
	if path != "" {
		if err := opts.loadFile(path, required); err != nil {
			return nil, err
		}
	}
	if err := opts.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return opts, nil
}

func loadDotEnv() error {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

func (o *Options) loadFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), o); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Relative roots in a config file are relative to the file.
	dir := filepath.Dir(path)
	for i, r := range o.Roots {
		if r != "" && !filepath.IsAbs(r) {
			o.Roots[i] = filepath.Join(dir, r)
		}
	}
	return nil
}

// ApplyEnv overrides options from BINSWEEP_* variables found by lookup.
func (o *Options) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}

	if v, ok := lookup(EnvPrefix + "ROOT"); ok && v != "" {
		o.Roots = filepath.SplitList(v)
	}
	if v, ok := lookup(EnvPrefix + "CONFIGURATIONS"); ok && v != "" {
		o.Configurations = splitList(v)
	}
	boolean("DELETE", &o.Delete)
	boolean("DRY_RUN", &o.DryRun)
	boolean("FORCE", &o.Force)
	str("CONFIRM", &o.Confirm)
	integer("PARALLEL", &o.Parallel)
	integer("DEPTH", &o.Depth)
	str("MSBUILD", &o.MSBuild)
	boolean("NUPKG", &o.Clean.Nupkg)
	boolean("NON_CURRENT", &o.Policy.NonCurrentOnly)
	boolean("DELETE_EMPTY_DIRS", &o.Policy.DeleteEmptyDirs)
	boolean("FILES_ONLY", &o.Policy.FilesOnly)
	integer("ENUMERATION_DEPTH", &o.EnumerationDepth)
	boolean("CASE_SENSITIVE_PATHS", &o.CaseSensitivePaths)
	str("IGNORE_FILE", &o.IgnoreFile)
	str("REPORT_FILE", &o.ReportFile)
	str("METRICS_FILE", &o.MetricsFile)
	str("LOG_LEVEL", &o.Log.Level)
	str("LOG_FORMAT", &o.Log.Format)
	if v, ok := lookup(EnvPrefix + "QUERY_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sQUERY_TIMEOUT: %w", EnvPrefix, err))
		} else {
			o.QueryTimeout = d
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrValidation, errors.Join(errs...))
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ';' }) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var (
	confirmLevels = []string{"force", "sln", "proj", "dir"}
	logLevels     = []string{"debug", "verbose", "info", "warning", "warn", "error"}
	logFormats    = []string{"text", "json"}
)

// Validate reports every conflicting or malformed option at once.
func (o *Options) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if o.Delete && o.DryRun {
		add("--delete and --dry-run are mutually exclusive")
	}
	if !oneOf(o.Confirm, confirmLevels) {
		add("invalid confirm level %q (valid: %s)", o.Confirm, strings.Join(confirmLevels, ", "))
	} else if strings.EqualFold(o.Confirm, "force") && !o.Force {
		add("--confirm force must specify --force")
	}
	if o.Force && len(o.Roots) == 0 {
		add("if --force is used, the root directory or solution must be given explicitly")
	}
	if o.Parallel < 0 {
		add("parallel must not be negative, got %d", o.Parallel)
	}
	if o.Depth < 0 {
		add("depth must not be negative, got %d", o.Depth)
	}
	if o.QueryTimeout < 0 {
		add("query timeout must not be negative, got %s", o.QueryTimeout)
	}
	if !o.Clean.BuildOutput && !o.Clean.Intermediate && !o.Clean.Nupkg && !o.Clean.Obj {
		add("nothing selected to clean")
	}
	if !oneOf(o.Log.Level, logLevels) {
		add("invalid log level %q (valid: %s)", o.Log.Level, strings.Join(logLevels, ", "))
	}
	if !oneOf(o.Log.Format, logFormats) {
		add("invalid log format %q (valid: %s)", o.Log.Format, strings.Join(logFormats, ", "))
	}
	for _, r := range o.Roots {
		if r == "" {
			add("empty root")
			continue
		}
		if _, err := os.Stat(r); err != nil {
			add("file/directory %q not found", r)
		}
	}
	if o.MSBuild != "" {
		if _, err := os.Stat(o.MSBuild); err != nil {
			add("file/directory %q not found", o.MSBuild)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrValidation, errors.Join(errs...))
	}
	return nil
}

func oneOf(v string, valid []string) bool {
	for _, s := range valid {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// Normalize derives the effective settings. Call after Validate.
//
// --force sets confirm to force, --non-current turns on structure
// validation and turns off intermediate cleanup unless --obj is given, and
// no roots means cwd.
func (o *Options) Normalize(cwd string) {
	if o.Force {
		o.Confirm = "force"
	}
	o.Confirm = strings.ToLower(o.Confirm)
	o.Log.Level = strings.ToLower(o.Log.Level)
	o.Log.Format = strings.ToLower(o.Log.Format)

	if o.Policy.NonCurrentOnly {
		o.Policy.ValidateStructure = true
		o.Clean.Intermediate = false
	}
	if o.Clean.Obj {
		o.Clean.Intermediate = true
	}

	if len(o.Roots) == 0 {
		o.Roots = []string{cwd}
	}
	for i, r := range o.Roots {
		if !filepath.IsAbs(r) {
			o.Roots[i] = filepath.Join(cwd, r)
		}
	}
}

// DryRunMode reports whether nothing may be deleted.
func (o *Options) DryRunMode() bool {
	return o.DryRun || !o.Delete
}
