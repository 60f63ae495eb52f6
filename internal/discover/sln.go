package discover

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/danieljhkim/binsweep/internal/logfields"
)

// solutionFolderType marks virtual folders in a .sln; they are not projects.
const solutionFolderType = "2150E333-8FDC-42A3-9474-1A3956D46DE8"

var (
	slnProjectLine = regexp.MustCompile(`^Project\("\{([^}]+)\}"\)\s*=\s*"([^"]*)"\s*,\s*"([^"]*)"\s*,\s*"\{([^}]+)\}"`)
	slnConfigLine  = regexp.MustCompile(`^\{([^}]+)\}\.([^.]+(?:\.[^.]+)*?)\|([^.]+)\.ActiveCfg\s*=\s*([^|]+)\|(.+)$`)
)

type slnProject struct {
	guid    string
	path    string
	configs []Config
}

// parseSln extracts the projects of a classic solution and, per project,
// the (configuration, platform) pairs the solution maps it to.
func parseSln(data []byte) ([]slnProject, error) {
	var (
		projects []*slnProject
		byGUID   = make(map[string]*slnProject)
		section  string
	)

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())

		switch {
		case strings.HasPrefix(line, "Project("):
			m := slnProjectLine.FindStringSubmatch(line)
			if m == nil {
				return nil, fmt.Errorf("malformed project line: %q", line)
			}
			if strings.EqualFold(m[1], solutionFolderType) {
				continue
			}
			p := &slnProject{guid: strings.ToUpper(m[4]), path: m[3]}
			projects = append(projects, p)
			byGUID[p.guid] = p

		case strings.HasPrefix(line, "GlobalSection("):
			section = line[len("GlobalSection("):]
			if i := strings.IndexByte(section, ')'); i >= 0 {
				section = section[:i]
			}

		case line == "EndGlobalSection":
			section = ""

		case section == "ProjectConfigurationPlatforms":
			m := slnConfigLine.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			p, ok := byGUID[strings.ToUpper(m[1])]
			if !ok {
				continue
			}
			p.configs = append(p.configs, Config{
				Configuration: strings.TrimSpace(m[4]),
				Platform:      strings.TrimSpace(m[5]),
			})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	out := make([]slnProject, 0, len(projects))
	for _, p := range projects {
		out = append(out, *p)
	}
	return out, nil
}

func (d *Discoverer) readSln(path string) ([]Project, error) {
	data, err := d.fs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entries, err := parseSln(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	var projects []Project
	for _, e := range entries {
		projPath, err := resolveRef(dir, e.path)
		if err != nil {
			d.logger.Warn("Skipping project with invalid path", logfields.Path(e.path), logfields.Error(err))
			continue
		}
		if p, ok := d.newProject(path, projPath, e.configs); ok {
			projects = append(projects, p)
		}
	}
	return projects, nil
}
