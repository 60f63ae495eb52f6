package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/binsweep/internal/config"
	"github.com/danieljhkim/binsweep/internal/engine"
	"github.com/danieljhkim/binsweep/internal/fsops"
	"github.com/danieljhkim/binsweep/internal/gitx"
	"github.com/danieljhkim/binsweep/internal/metrics"
	"github.com/danieljhkim/binsweep/internal/report"
)

// runFlags holds the flags shared by clean and plan.
type runFlags struct {
	configPath     string
	roots          []string
	delete         bool
	dryRun         bool
	force          bool
	confirm        string
	parallel       int
	depth          int
	msbuild        string
	configurations []string
	nupkg          bool
	obj            bool
	nonCurrent     bool
	deleteEmpty    bool
	filesOnly      bool
	enumDepth      int
	caseSensitive  bool
	queryTimeout   time.Duration
	ignoreFile     string
	reportFile     string
	metricsFile    string
	logLevel       string
	logFormat      string
}

var (
	cleanFlags runFlags
	planFlags  runFlags
)

var cleanCmd = &cobra.Command{
	Use:   "clean [root...]",
	Short: "Remove the build output of every project below a root",
	Long: `Remove the build output of every project below a root.

A root is a directory, a solution (.sln, .slnx, .slnf) or a project file.
Without --delete the run only prints what would be removed.

Confirmation levels:
  dir    ask before each directory (default)
  proj   ask once per project
  sln    ask once per solution or directory root
  force  never ask; requires --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSweep(cmd, &cleanFlags, args, false)
	},
}

var planCmd = &cobra.Command{
	Use:   "plan [root...]",
	Short: "Show what clean would remove without deleting anything",
	Long: `Show what clean would remove without deleting anything.

Prints the planned directories with their sizes and the shell commands that
would remove them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSweep(cmd, &planFlags, args, true)
	},
}

func init() {
	registerRunFlags(cleanCmd, &cleanFlags, true)
	registerRunFlags(planCmd, &planFlags, false)
}

func registerRunFlags(cmd *cobra.Command, f *runFlags, destructive bool) {
	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "Path to a config file")
	fl.StringSliceVar(&f.roots, "root", nil, "Root directory, solution or project (repeatable)")
	if destructive {
		fl.BoolVar(&f.delete, "delete", false, "Delete the planned outputs")
		fl.BoolVar(&f.dryRun, "dry-run", false, "Only show what would be deleted")
		fl.BoolVar(&f.force, "force", false, "Delete without asking; requires an explicit root")
		fl.StringVar(&f.confirm, "confirm", "dir", "Confirmation level: dir, proj, sln or force")
		fl.BoolVar(&f.deleteEmpty, "delete-empty-directories", false, "Also remove planned directories that are empty")
		fl.BoolVar(&f.filesOnly, "delete-files", false, "Delete the files below each directory and keep the tree")
	}
	fl.IntVarP(&f.parallel, "parallel", "p", 0, "Number of concurrent property queries (0 is sequential)")
	fl.IntVar(&f.depth, "depth", 2, "Directory levels scanned for solution files")
	fl.StringVar(&f.msbuild, "msbuild", "", "Path to msbuild.exe, MSBuild.dll or their directory")
	fl.StringSliceVar(&f.configurations, "configuration", nil, "Configurations assumed for bare projects")
	fl.BoolVar(&f.nupkg, "nupkg", false, "Also remove the project's .nupkg packages")
	fl.BoolVar(&f.obj, "obj", false, "Keep removing obj directories together with --non-current")
	fl.BoolVar(&f.nonCurrent, "non-current", false, "Only remove target framework outputs no longer built")
	fl.IntVar(&f.enumDepth, "enumeration-depth", 10, "Maximum depth when sizing directories")
	fl.BoolVar(&f.caseSensitive, "case-sensitive-paths", false, "Compare paths by their exact spelling")
	fl.DurationVar(&f.queryTimeout, "query-timeout", 2*time.Minute, "Timeout of a single property query (0 is none)")
	fl.StringVar(&f.ignoreFile, "ignore-file", "", "Gitignore-style file of paths to skip while scanning")
	fl.StringVar(&f.reportFile, "report", "", "Write a JSON report to this file")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	fl.StringVarP(&f.logLevel, "log-level", "v", "info", "Log level: debug, verbose, info, warning or error")
	fl.StringVar(&f.logFormat, "log-format", "text", "Log format: text or json")
}

// loadOptions layers config file, environment and changed flags.
func loadOptions(cmd *cobra.Command, f *runFlags, args []string, planOnly bool) (*config.Options, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}

	file, required := paths.ConfigFile(f.configPath, cwd)
	opts, err := config.Load(file, required)
	if err != nil {
		return nil, err
	}

	if err := applyFlags(cmd, f, args, opts); err != nil {
		return nil, err
	}
	if planOnly {
		opts.Delete = false
		opts.DryRun = true
		opts.Force = false
		opts.Confirm = "dir"
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.Normalize(cwd)
	return opts, nil
}

// applyFlags copies every flag the user set onto opts. Positional roots
// come after --root.
func applyFlags(cmd *cobra.Command, f *runFlags, args []string, opts *config.Options) error {
	changed := cmd.Flags().Changed

	if changed("confirm") && changed("force") && f.force && !strings.EqualFold(f.confirm, "force") {
		return fmt.Errorf("%w: --confirm (sln|proj|dir) plus --force specified; remove one of them", config.ErrValidation)
	}

	if roots := append(append([]string{}, f.roots...), args...); len(roots) > 0 {
		opts.Roots = roots
	}
	if changed("delete") {
		opts.Delete = f.delete
	}
	if changed("dry-run") {
		opts.DryRun = f.dryRun
	}
	if changed("force") {
		opts.Force = f.force
	}
	if changed("confirm") {
		opts.Confirm = f.confirm
	}
	if changed("parallel") {
		opts.Parallel = f.parallel
	}
	if changed("depth") {
		opts.Depth = f.depth
	}
	if changed("msbuild") {
		opts.MSBuild = f.msbuild
	}
	if changed("configuration") {
		opts.Configurations = f.configurations
	}
	if changed("nupkg") {
		opts.Clean.Nupkg = f.nupkg
	}
	if changed("obj") {
		opts.Clean.Obj = f.obj
	}
	if changed("non-current") {
		opts.Policy.NonCurrentOnly = f.nonCurrent
	}
	if changed("delete-empty-directories") {
		opts.Policy.DeleteEmptyDirs = f.deleteEmpty
	}
	if changed("delete-files") {
		opts.Policy.FilesOnly = f.filesOnly
	}
	if changed("enumeration-depth") {
		opts.EnumerationDepth = f.enumDepth
	}
	if changed("case-sensitive-paths") {
		opts.CaseSensitivePaths = f.caseSensitive
	}
	if changed("query-timeout") {
		opts.QueryTimeout = f.queryTimeout
	}
	if changed("ignore-file") {
		opts.IgnoreFile = f.ignoreFile
	}
	if changed("report") {
		opts.ReportFile = f.reportFile
	}
	if changed("metrics-file") {
		opts.MetricsFile = f.metricsFile
	}
	if changed("log-level") {
		opts.Log.Level = f.logLevel
	}
	if changed("log-format") {
		opts.Log.Format = f.logFormat
	}
	return nil
}

func runSweep(cmd *cobra.Command, f *runFlags, args []string, planOnly bool) error {
	opts, err := loadOptions(cmd, f, args, planOnly)
	if err != nil {
		return err
	}

	logger, err := newLogger(opts.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var promRecorder *metrics.PrometheusRecorder
	if opts.MetricsFile != "" {
		promRecorder = metrics.NewPrometheusRecorder(nil)
		recorder = promRecorder
	}

	eng, err := newEngine(opts, recorder, logger)
	if err != nil {
		return err
	}

	var confirmer engine.Confirmer
	if !opts.DryRunMode() {
		confirmer = newPromptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
	}
	req, err := newRunRequest(opts, confirmer)
	if err != nil {
		return err
	}

	result, err := eng.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	rep := report.New(result, time.Now())
	var writeErrs []error
	if opts.ReportFile != "" {
		if err := report.Write(fsops.NewRealFS(), opts.ReportFile, rep); err != nil {
			writeErrs = append(writeErrs, err)
		}
	}
	if promRecorder != nil {
		if err := promRecorder.WriteTextfile(opts.MetricsFile); err != nil {
			writeErrs = append(writeErrs, fmt.Errorf("failed to write metrics: %w", err))
		}
	}

	if jsonOutput {
		if err := outputJSON(rep); err != nil {
			return err
		}
	} else {
		printResult(result, newPathDisplay(gitx.NewRealRepo(), opts.Roots))
	}

	if result.Failed() {
		writeErrs = append(writeErrs, fmt.Errorf("%w: %s",
			engine.ErrDeletionFailed,
			PrintCount(len(result.Execution.Failures), "path", "paths")))
	}
	return errors.Join(writeErrs...)
}

// printResult renders the plan and, for real runs, what was deleted.
func printResult(result *engine.RunResult, display *pathDisplay) {
	sum := result.Summary

	PrintSection("Deletion Plan")
	if len(sum.Directories) == 0 && len(sum.Files) == 0 {
		PrintEmptyState("Nothing to clean")
	} else {
		rows := make([][]string, 0, len(sum.Directories)+len(sum.Files))
		for _, d := range sum.Directories {
			rows = append(rows, []string{
				display.Show(d.Path),
				fmt.Sprintf("%d", d.Files),
				FormatSize(d.Bytes),
			})
		}
		for _, f := range sum.Files {
			rows = append(rows, []string{display.Show(f.Path), "1", FormatSize(f.Bytes)})
		}
		PrintTable([]string{"PATH", "FILES", "SIZE"}, rows)
		fmt.Println()
		PrintLabelValue("Total", fmt.Sprintf("%s in %s", FormatSize(sum.TotalBytes),
			PrintCount(sum.TotalFiles, "file", "files")))
	}
	PrintLabelValue("Build units", fmt.Sprintf("%d", result.Units))
	PrintLabelValue("Property queries", fmt.Sprintf("%d", result.Queries))
	if len(sum.Empty) > 0 {
		PrintLabelValue("Empty directories", fmt.Sprintf("%d", len(sum.Empty)))
	}

	if len(result.Skipped) > 0 {
		PrintSection("Skipped")
		for _, s := range result.Skipped {
			PrintWarning(fmt.Sprintf("%s: %v", display.Show(s.Unit), s.Err))
		}
	}
	for _, w := range result.Warnings {
		PrintWarning(w.Error())
	}

	if result.DryRun {
		if len(sum.Directories) > 0 || len(sum.Files) > 0 {
			PrintSection("Commands")
			_ = report.WriteCommands(os.Stdout, sum, report.ShellFor(runtime.GOOS))
			fmt.Println()
		}
		PrintInfo("Dry run: nothing was deleted. Run clean with --delete to remove these paths.")
		return
	}

	x := result.Execution
	if x == nil {
		return
	}
	PrintSection("Deleted")
	PrintSuccess(fmt.Sprintf("Deleted %s and %s",
		PrintCount(len(x.DeletedDirs), "directory", "directories"),
		PrintCount(len(x.DeletedFiles), "file", "files")))
	if len(x.Declined) > 0 {
		PrintWarning(fmt.Sprintf("Kept %s on request", PrintCount(len(x.Declined), "path", "paths")))
	}
	for _, fail := range x.Failures {
		PrintError(fail.Error())
	}
}

// pathDisplay shortens absolute paths relative to the repository or root
// they were found under.
type pathDisplay struct {
	repo  gitx.Repo
	bases []string
}

func newPathDisplay(repo gitx.Repo, roots []string) *pathDisplay {
	d := &pathDisplay{repo: repo}
	for _, root := range roots {
		base := root
		if info, err := os.Stat(root); err == nil && !info.IsDir() {
			base = filepath.Dir(root)
		}
		if top, err := repo.Discover(base); err == nil {
			base = top
		}
		d.bases = append(d.bases, base)
	}
	return d
}

// Show returns path relative to the first base containing it.
func (d *pathDisplay) Show(path string) string {
	for _, base := range d.bases {
		if rel, err := d.repo.RelPath(base, path); err == nil && rel != "." {
			return rel
		}
	}
	return path
}
