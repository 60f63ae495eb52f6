package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/binsweep/internal/buildunit"
	"github.com/danieljhkim/binsweep/internal/fsops"
)

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const classicSln = `
Microsoft Visual Studio Solution File, Format Version 12.00
# Visual Studio Version 17
Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "A", "src\A\A.csproj", "{11111111-1111-1111-1111-111111111111}"
EndProject
Project("{2150E333-8FDC-42A3-9474-1A3956D46DE8}") = "Solution Items", "Solution Items", "{22222222-2222-2222-2222-222222222222}"
EndProject
Project("{8BC9CEB8-8B4A-11D0-8D11-00A0C91BC942}") = "Native", "src\Native\Native.vcxproj", "{33333333-3333-3333-3333-333333333333}"
EndProject
Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "Gone", "src\Gone\Gone.csproj", "{44444444-4444-4444-4444-444444444444}"
EndProject
Project("{54435603-DBB4-11D2-8724-00A0C9A8B90C}") = "Setup", "setup\Setup.vdproj", "{55555555-5555-5555-5555-555555555555}"
EndProject
Global
	GlobalSection(SolutionConfigurationPlatforms) = preSolution
		Debug|Any CPU = Debug|Any CPU
		Debug|x64 = Debug|x64
		Release|Any CPU = Release|Any CPU
	EndGlobalSection
	GlobalSection(ProjectConfigurationPlatforms) = postSolution
		{11111111-1111-1111-1111-111111111111}.Debug|Any CPU.ActiveCfg = Debug|Any CPU
		{11111111-1111-1111-1111-111111111111}.Debug|Any CPU.Build.0 = Debug|Any CPU
		{11111111-1111-1111-1111-111111111111}.Debug|x64.ActiveCfg = Debug|Any CPU
		{11111111-1111-1111-1111-111111111111}.Release|Any CPU.ActiveCfg = Release|Any CPU
		{33333333-3333-3333-3333-333333333333}.Debug|Any CPU.ActiveCfg = Debug|Win32
		{33333333-3333-3333-3333-333333333333}.Debug|x64.ActiveCfg = Debug|x64
		{33333333-3333-3333-3333-333333333333}.Release|Any CPU.ActiveCfg = Release|x64
	EndGlobalSection
EndGlobal
`

func classicTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "All.sln", classicSln)
	writeFile(t, dir, "src/A/A.csproj", "<Project/>")
	writeFile(t, dir, "src/Native/Native.vcxproj", "<Project/>")
	writeFile(t, dir, "setup/Setup.vdproj", "")
	return dir
}

func TestParseSln(t *testing.T) {
	entries, err := parseSln([]byte(classicSln))
	require.NoError(t, err)
	require.Len(t, entries, 4, "solution folder is skipped")

	assert.Equal(t, `src\A\A.csproj`, entries[0].path)
	assert.Equal(t, []Config{
		{Configuration: "Debug", Platform: "Any CPU"},
		{Configuration: "Debug", Platform: "Any CPU"},
		{Configuration: "Release", Platform: "Any CPU"},
	}, entries[0].configs)
	assert.Len(t, entries[1].configs, 3)
	assert.Empty(t, entries[2].configs)
}

func TestParseSln_MalformedProjectLine(t *testing.T) {
	_, err := parseSln([]byte(`Project("{X}") = broken`))
	assert.Error(t, err)
}

func TestDiscover_SolutionFile(t *testing.T) {
	dir := classicTree(t)
	d := New(fsops.NewRealFS(), Options{Depth: 2}, nil)

	res, err := d.Discover(filepath.Join(dir, "All.sln"))
	require.NoError(t, err)
	require.Len(t, res.Projects, 2, "missing and unsupported projects are skipped")

	a := res.Projects[0]
	assert.Equal(t, filepath.Join(dir, "src", "A", "A.csproj"), a.Path)
	assert.Equal(t, dir, a.Container)
	assert.Equal(t, filepath.Join(dir, "All.sln"), a.Solution)
	assert.Equal(t, buildunit.ProjectCsproj, a.Kind)
	assert.Equal(t, []Config{{Configuration: "Debug"}, {Configuration: "Release"}}, a.Configs)

	native := res.Projects[1]
	assert.Equal(t, buildunit.ProjectVcxproj, native.Kind)
	assert.Equal(t, []Config{
		{Configuration: "Debug", Platform: "Win32"},
		{Configuration: "Debug", Platform: "x64"},
		{Configuration: "Release", Platform: "x64"},
	}, native.Configs)
}

func TestDiscover_DirectoryScan(t *testing.T) {
	dir := classicTree(t)
	writeFile(t, dir, "nested/deep/er/Too.sln", classicSln)
	writeFile(t, dir, "ignored/Skip.sln", classicSln)
	writeFile(t, dir, "node_modules/pkg/Skip.sln", classicSln)
	writeFile(t, dir, ".gitignore", "ignored/\n")

	d := New(fsops.NewRealFS(), Options{Depth: 2}, nil)
	res, err := d.Discover(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "All.sln")}, res.Solutions)
	assert.Len(t, res.Projects, 2)
}

func TestDiscover_FallsBackToProjects(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/A/A.csproj", "<Project/>")
	writeFile(t, dir, "src/B/B.fsproj", "<Project/>")
	writeFile(t, dir, "src/C/C.proj", "<Project/>")

	d := New(fsops.NewRealFS(), Options{Depth: 2, Configurations: []string{"Release"}}, nil)
	res, err := d.Discover(dir)
	require.NoError(t, err)

	assert.Empty(t, res.Solutions)
	require.Len(t, res.Projects, 2)
	for _, p := range res.Projects {
		assert.Equal(t, dir, p.Container)
		assert.Empty(t, p.Solution)
		assert.Equal(t, []Config{{Configuration: "Release"}}, p.Configs)
	}
}

func TestDiscover_ProjectFile(t *testing.T) {
	dir := t.TempDir()
	proj := writeFile(t, dir, "Native.vcxproj", "<Project/>")

	res, err := New(fsops.NewRealFS(), Options{}, nil).Discover(proj)
	require.NoError(t, err)
	require.Len(t, res.Projects, 1)
	assert.Equal(t, dir, res.Projects[0].Container)
	assert.Equal(t, []Config{{Configuration: "Debug", Platform: "x64"}, {Configuration: "Release", Platform: "x64"}}, res.Projects[0].Configs)
}

func TestDiscover_SolutionFilter(t *testing.T) {
	dir := classicTree(t)
	writeFile(t, dir, "filters/OnlyA.slnf", `{"solution":{"path":"..\\All.sln","projects":["src\\A\\A.csproj"]}}`)

	res, err := New(fsops.NewRealFS(), Options{}, nil).Discover(filepath.Join(dir, "filters", "OnlyA.slnf"))
	require.NoError(t, err)
	require.Len(t, res.Projects, 1)
	assert.Equal(t, filepath.Join(dir, "src", "A", "A.csproj"), res.Projects[0].Path)
	assert.Equal(t, filepath.Join(dir, "filters"), res.Projects[0].Container)
}

func TestDiscover_Slnx(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/A/A.csproj", "<Project/>")
	writeFile(t, dir, "src/N/N.vcxproj", "<Project/>")
	writeFile(t, dir, "All.slnx", `<Solution>
  <Configurations>
    <BuildType Name="Debug" />
    <BuildType Name="Release" />
  </Configurations>
  <Folder Name="/src/">
    <Project Path="src/A/A.csproj" />
    <Folder Name="/src/native/">
      <Project Path="src/N/N.vcxproj" />
    </Folder>
  </Folder>
</Solution>`)

	res, err := New(fsops.NewRealFS(), Options{}, nil).Discover(filepath.Join(dir, "All.slnx"))
	require.NoError(t, err)
	require.Len(t, res.Projects, 2)
	assert.Equal(t, []Config{{Configuration: "Debug"}, {Configuration: "Release"}}, res.Projects[0].Configs)
	assert.Equal(t, []Config{{Configuration: "Debug", Platform: "x64"}, {Configuration: "Release", Platform: "x64"}}, res.Projects[1].Configs)
}

func TestDiscover_BrokenSolutionIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Bad.slnx", "<Solution><unclosed>")

	res, err := New(fsops.NewRealFS(), Options{}, nil).Discover(filepath.Join(dir, "Bad.slnx"))
	require.NoError(t, err)
	assert.Empty(t, res.Projects)
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := New(fsops.NewRealFS(), Options{}, nil).Discover(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrRootNotFound)
}
