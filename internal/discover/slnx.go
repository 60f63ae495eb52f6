package discover

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
)

type slnxDocument struct {
	Configurations struct {
		BuildTypes []slnxNamed `xml:"BuildType"`
		Platforms  []slnxNamed `xml:"Platform"`
	} `xml:"Configurations"`
	Projects []slnxProject `xml:"Project"`
	Folders  []slnxFolder  `xml:"Folder"`
}

type slnxNamed struct {
	Name string `xml:"Name,attr"`
}

type slnxFolder struct {
	Name     string        `xml:"Name,attr"`
	Projects []slnxProject `xml:"Project"`
	Folders  []slnxFolder  `xml:"Folder"`
}

type slnxProject struct {
	Path string `xml:"Path,attr"`
}

func (f slnxFolder) collect(out []slnxProject) []slnxProject {
	out = append(out, f.Projects...)
	for _, sub := range f.Folders {
		out = sub.collect(out)
	}
	return out
}

// readSlnx reads the XML solution format. Without declared build types the
// discoverer's default configurations apply; without platforms "Any CPU".
func (d *Discoverer) readSlnx(path string) ([]Project, error) {
	data, err := d.fs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc slnxDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	buildTypes := make([]string, 0, len(doc.Configurations.BuildTypes))
	for _, b := range doc.Configurations.BuildTypes {
		if b.Name != "" {
			buildTypes = append(buildTypes, b.Name)
		}
	}
	if len(buildTypes) == 0 {
		buildTypes = d.opts.Configurations
	}
	platforms := make([]string, 0, len(doc.Configurations.Platforms))
	for _, p := range doc.Configurations.Platforms {
		if p.Name != "" {
			platforms = append(platforms, p.Name)
		}
	}
	if len(platforms) == 0 {
		platforms = []string{"Any CPU"}
	}

	var configs []Config
	for _, b := range buildTypes {
		for _, p := range platforms {
			configs = append(configs, Config{Configuration: b, Platform: p})
		}
	}

	refs := slnxFolder{Projects: doc.Projects, Folders: doc.Folders}.collect(nil)
	dir := filepath.Dir(path)
	var projects []Project
	for _, ref := range refs {
		projPath, err := resolveRef(dir, ref.Path)
		if err != nil {
			continue
		}
		if p, ok := d.newProject(path, projPath, configs); ok {
			projects = append(projects, p)
		}
	}
	return projects, nil
}
