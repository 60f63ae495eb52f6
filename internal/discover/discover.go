// Package discover finds the build units below a root: solution files
// (.sln, .slnf, .slnx) and the projects they reference, or bare project
// files when a directory holds no solution.
package discover

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/danieljhkim/binsweep/internal/buildunit"
	"github.com/danieljhkim/binsweep/internal/fsops"
	"github.com/danieljhkim/binsweep/internal/logfields"
	"github.com/danieljhkim/binsweep/internal/pathx"
)

// ErrRootNotFound is returned when the root path does not exist.
var ErrRootNotFound = errors.New("root not found")

// Config is one (configuration, platform) pair to query a project with.
// Platform is only set for native projects.
type Config struct {
	Configuration string
	Platform      string
}

// Project is a discovered build unit.
type Project struct {
	// Path is the rooted project file path.
	Path string

	// Container is the directory of whatever discovered the project: the
	// solution's directory or the scanning root.
	Container string

	// Solution is the solution file that referenced the project, if any.
	Solution string

	Kind buildunit.ProjectKind

	// Configs lists the pairs to query. Never empty.
	Configs []Config
}

// Result is everything found below one root.
type Result struct {
	Root      string
	Solutions []string
	Projects  []Project
}

// Options tunes discovery.
type Options struct {
	// Depth is how many directory levels below a root directory are
	// scanned for solution files.
	Depth int

	// Configurations are used for projects that carry no configuration
	// information of their own (bare project files, .slnx without build
	// types).
	Configurations []string

	// IgnoreFile is a gitignore-style file; "" uses <root>/.gitignore.
	IgnoreFile string
}

// DefaultConfigurations are the configurations assumed when none are known.
var DefaultConfigurations = []string{"Debug", "Release"}

var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	".vs":          {},
	".idea":        {},
	".vscode":      {},
	"node_modules": {},
	"packages":     {},
	"bin":          {},
	"obj":          {},
	"TestResults":  {},
}

// Discoverer walks roots for build units.
type Discoverer struct {
	fs     fsops.FS
	opts   Options
	logger *slog.Logger
}

// New creates a Discoverer. A nil logger discards output.
func New(fs fsops.FS, opts Options, logger *slog.Logger) *Discoverer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if len(opts.Configurations) == 0 {
		opts.Configurations = DefaultConfigurations
	}
	return &Discoverer{fs: fs, opts: opts, logger: logger}
}

// Discover resolves root, which may be a solution file, a project file or a
// directory. A solution that cannot be read is logged and skipped.
func (d *Discoverer) Discover(root string) (*Result, error) {
	rooted, err := pathx.Abs(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(rooted)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return nil, err
	}

	res := &Result{Root: rooted}
	switch {
	case info.IsDir():
		err = d.discoverDir(rooted, res)
	case isSolution(rooted):
		res.Solutions = []string{rooted}
		d.addSolution(rooted, res)
	case buildunit.KindOf(rooted).Supported():
		res.Projects = append(res.Projects, d.bareProject(rooted, filepath.Dir(rooted)))
	default:
		err = fmt.Errorf("%s is neither a directory, a solution nor a supported project file", root)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(res.Projects, func(i, j int) bool {
		if res.Projects[i].Path != res.Projects[j].Path {
			return res.Projects[i].Path < res.Projects[j].Path
		}
		return res.Projects[i].Container < res.Projects[j].Container
	})
	return res, nil
}

func (d *Discoverer) discoverDir(root string, res *Result) error {
	solutions, projects, err := d.scan(root)
	if err != nil {
		return err
	}

	if len(solutions) == 0 {
		d.logger.Info("No solution found, falling back to project files", logfields.Path(root), logfields.Count(len(projects)))
		for _, p := range projects {
			res.Projects = append(res.Projects, d.bareProject(p, root))
		}
		return nil
	}

	res.Solutions = solutions
	for _, sln := range solutions {
		d.addSolution(sln, res)
	}
	return nil
}

func (d *Discoverer) addSolution(path string, res *Result) {
	d.logger.Info("Reading solution", logfields.Path(path))

	projects, err := d.readSolution(path)
	if err != nil {
		d.logger.Error("Failed to read solution", logfields.Path(path), logfields.Error(err))
		return
	}
	res.Projects = append(res.Projects, projects...)
}

func (d *Discoverer) readSolution(path string) ([]Project, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sln":
		return d.readSln(path)
	case ".slnf":
		return d.readSlnf(path)
	case ".slnx":
		return d.readSlnx(path)
	default:
		return nil, fmt.Errorf("unsupported solution format: %s", path)
	}
}

// scan walks root to the configured depth collecting solution and project
// files, skipping tool directories and ignored paths.
func (d *Discoverer) scan(root string) (solutions, projects []string, err error) {
	gi := d.loadIgnore(root)

	err = filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			d.logger.Debug("Skipping unreadable path", logfields.Path(path), logfields.Error(err))
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[entry.Name()]; skip {
				return filepath.SkipDir
			}
			if gi != nil && (gi.MatchesPath(rel) || gi.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			if strings.Count(rel, "/")+1 > d.opts.Depth {
				return filepath.SkipDir
			}
			return nil
		}

		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		switch {
		case isSolution(path):
			solutions = append(solutions, path)
		case buildunit.KindOf(path).Supported():
			projects = append(projects, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Strings(solutions)
	sort.Strings(projects)
	return solutions, projects, nil
}

func (d *Discoverer) loadIgnore(root string) *ignore.GitIgnore {
	path := d.opts.IgnoreFile
	if path == "" {
		path = filepath.Join(root, ".gitignore")
	}
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		if d.opts.IgnoreFile != "" {
			d.logger.Warn("Failed to read ignore file", logfields.Path(path), logfields.Error(err))
		}
		return nil
	}
	return gi
}

func (d *Discoverer) bareProject(path, container string) Project {
	kind := buildunit.KindOf(path)
	return Project{
		Path:      path,
		Container: container,
		Kind:      kind,
		Configs:   d.defaultConfigs(kind),
	}
}

func (d *Discoverer) defaultConfigs(kind buildunit.ProjectKind) []Config {
	configs := make([]Config, 0, len(d.opts.Configurations))
	for _, c := range d.opts.Configurations {
		cfg := Config{Configuration: c}
		if kind.Native() {
			cfg.Platform = "x64"
		}
		configs = append(configs, cfg)
	}
	return configs
}

// newProject validates a project referenced by a solution. ok is false
// for missing or unsupported projects, which are logged.
func (d *Discoverer) newProject(solution, path string, configs []Config) (Project, bool) {
	exists, err := d.fs.Exists(path)
	if err != nil || !exists {
		d.logger.Debug("Referenced project does not exist", logfields.Path(path), logfields.Container(solution))
		return Project{}, false
	}

	kind := buildunit.KindOf(path)
	if !kind.Supported() {
		d.logger.Warn("Unsupported project type, skipping", logfields.Path(path))
		return Project{}, false
	}

	configs = normalizeConfigs(kind, configs)
	if len(configs) == 0 {
		configs = d.defaultConfigs(kind)
	}
	return Project{
		Path:      path,
		Container: filepath.Dir(solution),
		Solution:  solution,
		Kind:      kind,
		Configs:   configs,
	}, true
}

// normalizeConfigs drops the platform of managed projects and removes the
// duplicates that leaves behind. Native projects map "Any CPU" to x64.
func normalizeConfigs(kind buildunit.ProjectKind, configs []Config) []Config {
	var out []Config
	seen := make(map[Config]bool)
	for _, c := range configs {
		if c.Configuration == "" {
			continue
		}
		if kind.Native() {
			if strings.EqualFold(strings.ReplaceAll(c.Platform, " ", ""), "AnyCPU") {
				c.Platform = "x64"
			}
		} else {
			c.Platform = ""
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func isSolution(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sln", ".slnf", ".slnx":
		return true
	}
	return false
}

// resolveRef roots a solution-relative project reference. Solutions written
// on Windows use backslashes.
func resolveRef(solutionDir, ref string) (string, error) {
	return pathx.RootPath(strings.TrimSpace(ref), solutionDir)
}
