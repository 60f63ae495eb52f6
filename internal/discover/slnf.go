package discover

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/binsweep/internal/pathx"
)

// solutionFilter is the JSON document of a .slnf file.
type solutionFilter struct {
	Solution struct {
		Path     string   `json:"path"`
		Projects []string `json:"projects"`
	} `json:"solution"`
}

// readSlnf reads the referenced solution and keeps only the filtered
// projects. The filter file's directory is the container.
func (d *Discoverer) readSlnf(path string) ([]Project, error) {
	data, err := d.fs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var filter solutionFilter
	if err := json.Unmarshal(data, &filter); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if filter.Solution.Path == "" {
		return nil, fmt.Errorf("%s: no solution path", path)
	}

	slnPath, err := resolveRef(filepath.Dir(path), filter.Solution.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if isSolution(slnPath) && filepath.Ext(slnPath) == filepath.Ext(path) {
		return nil, fmt.Errorf("%s: a solution filter cannot reference another filter", path)
	}
	all, err := d.readSolution(slnPath)
	if err != nil {
		return nil, err
	}

	slnDir := filepath.Dir(slnPath)
	keep := make(map[string]bool, len(filter.Solution.Projects))
	for _, ref := range filter.Solution.Projects {
		p, err := resolveRef(slnDir, ref)
		if err != nil {
			continue
		}
		keep[pathx.Key(p, false)] = true
	}

	var projects []Project
	for _, p := range all {
		if !keep[pathx.Key(p.Path, false)] {
			continue
		}
		p.Container = filepath.Dir(path)
		p.Solution = path
		projects = append(projects, p)
	}
	return projects, nil
}
