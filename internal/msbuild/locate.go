// Package msbuild locates a build backend and queries evaluated project
// properties from it with "-getproperty".
package msbuild

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no backend can be located.
var ErrNotFound = errors.New("no msbuild backend found")

// ExecType describes how a backend binary is launched.
type ExecType int

const (
	// ExecExe runs the located file directly.
	ExecExe ExecType = iota

	// ExecDotnetDll runs the located MSBuild.dll through "dotnet".
	ExecDotnetDll

	// ExecDotnetCLI runs "dotnet msbuild".
	ExecDotnetCLI
)

func (t ExecType) String() string {
	switch t {
	case ExecExe:
		return "exe"
	case ExecDotnetDll:
		return "dotnet-dll"
	case ExecDotnetCLI:
		return "dotnet-cli"
	default:
		return "unknown"
	}
}

// Backend is a located msbuild entry point.
type Backend struct {
	// Path is the executable, dll or dotnet host path.
	Path string

	Exec ExecType

	// Source tells where the backend came from: "explicit" or "path".
	Source string
}

// Command returns the program to start and the arguments that precede the
// msbuild arguments.
func (b Backend) Command() (string, []string) {
	switch b.Exec {
	case ExecDotnetDll:
		return "dotnet", []string{b.Path}
	case ExecDotnetCLI:
		return b.Path, []string{"msbuild"}
	default:
		return b.Path, nil
	}
}

func (b Backend) String() string {
	name, args := b.Command()
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}

// Locator finds a backend. LookPath defaults to exec.LookPath.
type Locator struct {
	LookPath func(file string) (string, error)
}

// NewLocator creates a Locator that searches PATH.
func NewLocator() *Locator {
	return &Locator{LookPath: exec.LookPath}
}

// Locate resolves explicit first when given: a file ending in .exe is run
// directly, any other file is run through dotnet, and a directory is
// searched for MSBuild.exe or MSBuild.dll. Without an explicit path it
// falls back to "dotnet msbuild" and then to "msbuild" on PATH.
func (l *Locator) Locate(explicit string) (Backend, error) {
	if explicit != "" {
		b, err := fromExplicit(explicit)
		if err != nil {
			return Backend{}, err
		}
		return b, nil
	}

	lookPath := l.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if p, err := lookPath("dotnet"); err == nil {
		return Backend{Path: p, Exec: ExecDotnetCLI, Source: "path"}, nil
	}
	if p, err := lookPath("msbuild"); err == nil {
		return Backend{Path: p, Exec: ExecExe, Source: "path"}, nil
	}
	return Backend{}, ErrNotFound
}

func fromExplicit(path string) (Backend, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Backend{}, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}
	if !info.IsDir() {
		return fromFile(path), nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return Backend{}, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(e.Name()) {
		case "msbuild.exe", "msbuild.dll":
			return fromFile(filepath.Join(path, e.Name())), nil
		}
	}
	return Backend{}, fmt.Errorf("%w: no MSBuild.exe or MSBuild.dll in %s", ErrNotFound, path)
}

func fromFile(path string) Backend {
	if strings.EqualFold(filepath.Ext(path), ".exe") {
		return Backend{Path: path, Exec: ExecExe, Source: "explicit"}
	}
	return Backend{Path: path, Exec: ExecDotnetDll, Source: "explicit"}
}
