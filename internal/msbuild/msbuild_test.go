package msbuild

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	out  []byte
	err  error
	dir  string
	name string
	args []string
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("query must carry a deadline")
	}
	f.dir, f.name, f.args = dir, name, args
	return f.out, f.err
}

func TestLocate_Explicit(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "MSBuild.exe")
	dll := filepath.Join(t.TempDir(), "MSBuild.dll")
	require.NoError(t, os.WriteFile(exe, nil, 0o755))
	require.NoError(t, os.WriteFile(dll, nil, 0o644))

	l := &Locator{LookPath: func(string) (string, error) { return "", errors.New("unused") }}

	b, err := l.Locate(exe)
	require.NoError(t, err)
	assert.Equal(t, ExecExe, b.Exec)
	assert.Equal(t, "explicit", b.Source)

	b, err = l.Locate(dll)
	require.NoError(t, err)
	assert.Equal(t, ExecDotnetDll, b.Exec)
	name, args := b.Command()
	assert.Equal(t, "dotnet", name)
	assert.Equal(t, []string{dll}, args)

	b, err = l.Locate(dir)
	require.NoError(t, err)
	assert.Equal(t, exe, b.Path)

	_, err = l.Locate(t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = l.Locate(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocate_Path(t *testing.T) {
	t.Run("prefers dotnet", func(t *testing.T) {
		l := &Locator{LookPath: func(f string) (string, error) { return "/usr/bin/" + f, nil }}
		b, err := l.Locate("")
		require.NoError(t, err)
		assert.Equal(t, ExecDotnetCLI, b.Exec)
		assert.Equal(t, "/usr/bin/dotnet msbuild", b.String())
	})

	t.Run("falls back to msbuild", func(t *testing.T) {
		l := &Locator{LookPath: func(f string) (string, error) {
			if f == "msbuild" {
				return "/opt/msbuild", nil
			}
			return "", errors.New("not found")
		}}
		b, err := l.Locate("")
		require.NoError(t, err)
		assert.Equal(t, ExecExe, b.Exec)
		assert.Equal(t, "/opt/msbuild", b.Path)
	})

	t.Run("nothing found", func(t *testing.T) {
		l := &Locator{LookPath: func(string) (string, error) { return "", errors.New("not found") }}
		_, err := l.Locate("")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestClient_Query(t *testing.T) {
	runner := &fakeRunner{out: []byte(`{"Properties":{"OutDir":"bin\\Debug\\net8.0\\","ProjectName":"A","TargetFrameworks":"net8.0;net6.0"}}`)}
	c := NewClient(Backend{Path: "/usr/bin/dotnet", Exec: ExecDotnetCLI}, runner, time.Second)

	props, err := c.Query(context.Background(), "/repo/src/A/A.csproj", "Debug", "x64")
	require.NoError(t, err)

	assert.Equal(t, "/repo/src/A", runner.dir)
	assert.Equal(t, "/usr/bin/dotnet", runner.name)
	require.Len(t, runner.args, 5)
	assert.Equal(t, "msbuild", runner.args[0])
	assert.Contains(t, runner.args[1], "-getproperty:OutDir,")
	assert.Equal(t, "-p:Configuration=Debug", runner.args[2])
	assert.Equal(t, "-p:Platform=x64", runner.args[3])
	assert.Equal(t, "/repo/src/A/A.csproj", runner.args[4])

	assert.Equal(t, `bin\Debug\net8.0\`, props.OutDir())
	assert.Equal(t, []string{"net8.0", "net6.0"}, props.TargetFrameworks())
}

func TestClient_QueryFailures(t *testing.T) {
	tests := []struct {
		name   string
		runner *fakeRunner
	}{
		{name: "process error", runner: &fakeRunner{err: errors.New("exit status 1")}},
		{name: "garbage", runner: &fakeRunner{out: []byte("MSBUILD : error MSB1009")}},
		{name: "empty properties", runner: &fakeRunner{out: []byte(`{"Properties":{}}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(Backend{Path: "msbuild"}, tt.runner, 0)
			_, err := c.Query(context.Background(), "/r/A.csproj", "Debug", "")
			assert.ErrorIs(t, err, ErrQueryFailed)
		})
	}
}

func TestClient_ArgsPlatformNeedsConfiguration(t *testing.T) {
	c := NewClient(Backend{Path: "msbuild"}, nil, 0)
	assert.Len(t, c.Args("/r/A.vcxproj", "", "x64"), 2)
	assert.Len(t, c.Args("/r/A.vcxproj", "Release", ""), 3)
}

func TestProperties(t *testing.T) {
	props, err := ParseOutput([]byte("Welcome banner\n" + `{"Properties":{"TargetFramework":"net8.0","TargetFrameworks":" net8.0 ; NET8.0;net48;","AssemblyName":"Asm","IsPackable":"True","UsingMicrosoftNETSdk":"true"}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"net8.0", "net48"}, props.TargetFrameworks())
	assert.Equal(t, "Asm", props.PackageID())
	assert.True(t, props.IsPackable())
	assert.True(t, props.UsesSDK())
	assert.Empty(t, props.OutDir())

	props[PropProjectName] = "Proj"
	assert.Equal(t, "Proj", props.PackageID())
	props[PropPackageID] = "Pkg"
	assert.Equal(t, "Pkg", props.PackageID())
}
