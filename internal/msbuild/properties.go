package msbuild

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Property names requested from the backend.
const (
	PropOutDir                     = "OutDir"
	PropBaseIntermediateOutputPath = "BaseIntermediateOutputPath"
	PropBaseOutputPath             = "BaseOutputPath"
	PropProjectName                = "ProjectName"
	PropTargetFramework            = "TargetFramework"
	PropTargetFrameworks           = "TargetFrameworks"
	PropUsingMicrosoftNETSdk       = "UsingMicrosoftNETSdk"
	PropIsPackable                 = "IsPackable"
	PropPackageOutputPath          = "PackageOutputPath"
	PropPackageID                  = "PackageId"
	PropAssemblyName               = "AssemblyName"
)

// DefaultProperties is the property set every query asks for.
var DefaultProperties = []string{
	PropOutDir,
	PropBaseIntermediateOutputPath,
	PropBaseOutputPath,
	PropProjectName,
	PropTargetFramework,
	PropTargetFrameworks,
	PropUsingMicrosoftNETSdk,
	PropIsPackable,
	PropPackageOutputPath,
	PropPackageID,
	PropAssemblyName,
}

// Properties holds evaluated project properties by name.
type Properties map[string]string

// Get returns the trimmed value of name, or "".
func (p Properties) Get(name string) string {
	return strings.TrimSpace(p[name])
}

func (p Properties) OutDir() string                     { return p.Get(PropOutDir) }
func (p Properties) BaseOutputPath() string             { return p.Get(PropBaseOutputPath) }
func (p Properties) BaseIntermediateOutputPath() string { return p.Get(PropBaseIntermediateOutputPath) }
func (p Properties) ProjectName() string                { return p.Get(PropProjectName) }
func (p Properties) PackageOutputPath() string          { return p.Get(PropPackageOutputPath) }

// PackageID returns PackageId, falling back to ProjectName and AssemblyName.
func (p Properties) PackageID() string {
	for _, name := range []string{PropPackageID, PropProjectName, PropAssemblyName} {
		if v := p.Get(name); v != "" {
			return v
		}
	}
	return ""
}

// IsPackable reports whether IsPackable evaluated to true.
func (p Properties) IsPackable() bool {
	return strings.EqualFold(p.Get(PropIsPackable), "true")
}

// UsesSDK reports whether the project is an SDK-style project.
func (p Properties) UsesSDK() bool {
	return strings.EqualFold(p.Get(PropUsingMicrosoftNETSdk), "true")
}

// TargetFrameworks returns TargetFramework together with every entry of the
// semicolon separated TargetFrameworks, de-duplicated case-insensitively.
func (p Properties) TargetFrameworks() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(tfm string) {
		tfm = strings.TrimSpace(tfm)
		if tfm == "" || seen[strings.ToLower(tfm)] {
			return
		}
		seen[strings.ToLower(tfm)] = true
		out = append(out, tfm)
	}

	add(p.Get(PropTargetFramework))
	for _, tfm := range strings.Split(p.Get(PropTargetFrameworks), ";") {
		add(tfm)
	}
	return out
}

type getPropertyOutput struct {
	Properties map[string]string `json:"Properties"`
}

// ParseOutput decodes the JSON document printed by "-getproperty" when more
// than one property is requested.
func ParseOutput(data []byte) (Properties, error) {
	// Banner or warning lines may precede the document.
	if i := bytes.IndexByte(data, '{'); i > 0 {
		data = data[i:]
	}
	var doc getPropertyOutput
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode property output: %w", err)
	}
	return Properties(doc.Properties), nil
}
