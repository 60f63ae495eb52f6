package engine

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/danieljhkim/binsweep/internal/buildunit"
	"github.com/danieljhkim/binsweep/internal/fsops"
	"github.com/danieljhkim/binsweep/internal/planner"
)

func dirCandidate(path string, units ...*buildunit.Record) planner.DirectoryCandidate {
	return planner.DirectoryCandidate{Path: path, Kinds: []buildunit.OutputKind{buildunit.OutputOut}, Units: units}
}

func TestExecutor_RemovesDirectoriesAndFiles(t *testing.T) {
	root := t.TempDir()
	bin := filepath.Join(root, "bin")
	writeFile(t, filepath.Join(bin, "a", "b.dll"), 1)
	pkg := filepath.Join(root, "A.1.0.0.nupkg")
	writeFile(t, pkg, 1)

	plan := &planner.DeletionPlan{
		Directories: []planner.DirectoryCandidate{dirCandidate(bin)},
		Files:       []planner.FileCandidate{{Path: pkg}},
	}
	x := NewExecutor(fsops.NewRealFS(), ExecuteOptions{Level: ConfirmForce}, nil, nil, nil)
	res := x.Execute(plan)

	if len(res.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", res.Failures)
	}
	if exists(t, bin) || exists(t, pkg) {
		t.Error("planned entries should be gone")
	}
	if len(res.DeletedDirs) != 1 || len(res.DeletedFiles) != 1 {
		t.Errorf("deleted dirs=%v files=%v", res.DeletedDirs, res.DeletedFiles)
	}
}

func TestExecutor_EmptyDirectories(t *testing.T) {
	tests := []struct {
		name        string
		deleteEmpty bool
		wantExists  bool
	}{
		{name: "kept by default", deleteEmpty: false, wantExists: true},
		{name: "removed when forced", deleteEmpty: true, wantExists: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "obj")
			mkdir(t, dir)

			opts := ExecuteOptions{Level: ConfirmForce, DeleteEmptyDirs: tt.deleteEmpty}
			x := NewExecutor(fsops.NewRealFS(), opts, nil, nil, nil)
			x.Execute(&planner.DeletionPlan{Directories: []planner.DirectoryCandidate{dirCandidate(dir)}})

			if got := exists(t, dir); got != tt.wantExists {
				t.Errorf("exists = %v, want %v", got, tt.wantExists)
			}
		})
	}
}

func TestExecutor_FilesOnlyKeepsTree(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bin")
	writeFile(t, filepath.Join(dir, "a.dll"), 1)
	writeFile(t, filepath.Join(dir, "sub", "b.dll"), 1)

	confirmer := &recordingConfirmer{answer: true}
	opts := ExecuteOptions{Level: ConfirmDir, FilesOnly: true, EnumerationDepth: -1}
	x := NewExecutor(fsops.NewRealFS(), opts, confirmer, nil, nil)
	res := x.Execute(&planner.DeletionPlan{Directories: []planner.DirectoryCandidate{dirCandidate(dir)}})

	if len(res.DeletedFiles) != 2 {
		t.Errorf("deleted files = %v, want 2", res.DeletedFiles)
	}
	if !exists(t, filepath.Join(dir, "sub")) {
		t.Error("directories must survive in files-only mode")
	}
	if len(confirmer.asked) != 1 || confirmer.asked[0] != "files below directory "+dir {
		t.Errorf("asked = %v", confirmer.asked)
	}
}

func TestExecutor_FailureDoesNotAbort(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "a", "bin")
	second := filepath.Join(root, "b", "bin")
	writeFile(t, filepath.Join(first, "x.dll"), 1)
	writeFile(t, filepath.Join(second, "x.dll"), 1)

	fsys := &failingFS{RealFS: fsops.NewRealFS(), prefixes: []string{first}}
	x := NewExecutor(fsys, ExecuteOptions{Level: ConfirmForce}, nil, nil, nil)
	res := x.Execute(&planner.DeletionPlan{Directories: []planner.DirectoryCandidate{
		dirCandidate(first),
		dirCandidate(second),
	}})

	if len(res.Failures) != 1 {
		t.Fatalf("failures = %v, want 1", res.Failures)
	}
	if !errors.Is(res.Failures[0], ErrDeletionFailed) {
		t.Errorf("failure %v should wrap ErrDeletionFailed", res.Failures[0])
	}
	if exists(t, second) {
		t.Error("second directory should still be deleted")
	}
}

func TestExecutor_FilesOnlyContinuesPastFailures(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bin")
	writeFile(t, filepath.Join(dir, "a", "locked.dll"), 1)
	writeFile(t, filepath.Join(dir, "b.dll"), 1)

	fsys := &failingFS{RealFS: fsops.NewRealFS(), prefixes: []string{filepath.Join(dir, "a")}}
	opts := ExecuteOptions{Level: ConfirmForce, FilesOnly: true, EnumerationDepth: -1}
	res := NewExecutor(fsys, opts, nil, nil, nil).Execute(&planner.DeletionPlan{
		Directories: []planner.DirectoryCandidate{dirCandidate(dir)},
	})

	if len(res.Failures) != 1 || len(res.DeletedFiles) != 1 {
		t.Errorf("failures=%v deleted=%v", res.Failures, res.DeletedFiles)
	}
	if exists(t, filepath.Join(dir, "b.dll")) {
		t.Error("b.dll should be deleted")
	}
}

func TestExecutor_ConfirmLevels(t *testing.T) {
	root := t.TempDir()
	sln := filepath.Join(root, "sln")
	unitA := unitRecord(t, filepath.Join(sln, "A", "A.csproj"), sln, root)
	unitB := unitRecord(t, filepath.Join(sln, "B", "B.csproj"), sln)

	aBin := filepath.Join(sln, "A", "bin")
	aObj := filepath.Join(sln, "A", "obj")
	bObj := filepath.Join(sln, "B", "obj")
	pkg := filepath.Join(root, "A.1.0.0.nupkg")

	tests := []struct {
		name  string
		level ConfirmLevel
		asked []string
	}{
		{
			name:  "dir",
			level: ConfirmDir,
			asked: []string{"directory " + aBin, "directory " + aObj, "directory " + bObj, "file " + pkg},
		},
		{
			name:  "proj",
			level: ConfirmProj,
			asked: []string{"outputs of project " + unitA.Path(), "outputs of project " + unitB.Path(), "file " + pkg},
		},
		{
			name:  "sln",
			level: ConfirmSln,
			asked: []string{"outputs of projects in " + sln, "file " + pkg},
		},
		{
			name:  "force",
			level: ConfirmForce,
			asked: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeFile(t, filepath.Join(aBin, "x"), 1)
			writeFile(t, filepath.Join(aObj, "x"), 1)
			writeFile(t, filepath.Join(bObj, "x"), 1)
			writeFile(t, pkg, 1)

			// Declining keeps everything in place for the next case.
			confirmer := &recordingConfirmer{answer: false}
			x := NewExecutor(fsops.NewRealFS(), ExecuteOptions{Level: tt.level}, confirmer, nil, nil)
			res := x.Execute(&planner.DeletionPlan{
				Directories: []planner.DirectoryCandidate{
					dirCandidate(aBin, unitA),
					dirCandidate(aObj, unitA),
					dirCandidate(bObj, unitB),
				},
				Files: []planner.FileCandidate{{Path: pkg, Units: []*buildunit.Record{unitA}}},
			})

			if !equalPaths(confirmer.asked, tt.asked) {
				t.Errorf("asked = %v, want %v", confirmer.asked, tt.asked)
			}
			if tt.level != ConfirmForce && len(res.Declined) != 4 {
				t.Errorf("declined = %v, want all four entries", res.Declined)
			}
		})
	}
}

func TestExecutor_ProjectAnswerKeyedByCaseSetting(t *testing.T) {
	root := t.TempDir()
	upper := unitRecord(t, filepath.Join(root, "App", "App.csproj"))
	lower := unitRecord(t, filepath.Join(root, "app", "app.csproj"))
	upperBin := filepath.Join(root, "App", "bin")
	lowerObj := filepath.Join(root, "app", "obj")

	tests := []struct {
		name          string
		caseSensitive bool
		asked         []string
	}{
		{
			name:          "case-insensitive asks once",
			caseSensitive: false,
			asked:         []string{"outputs of project " + upper.Path()},
		},
		{
			name:          "case-sensitive asks per spelling",
			caseSensitive: true,
			asked:         []string{"outputs of project " + upper.Path(), "outputs of project " + lower.Path()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeFile(t, filepath.Join(upperBin, "x"), 1)
			writeFile(t, filepath.Join(lowerObj, "x"), 1)

			confirmer := &recordingConfirmer{answer: false}
			opts := ExecuteOptions{Level: ConfirmProj, CaseSensitive: tt.caseSensitive}
			x := NewExecutor(fsops.NewRealFS(), opts, confirmer, nil, nil)
			x.Execute(&planner.DeletionPlan{
				Directories: []planner.DirectoryCandidate{
					dirCandidate(upperBin, upper),
					dirCandidate(lowerObj, lower),
				},
			})

			if !equalPaths(confirmer.asked, tt.asked) {
				t.Errorf("asked = %v, want %v", confirmer.asked, tt.asked)
			}
		})
	}
}

func TestExecutor_NoConfirmerDeclines(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bin")
	writeFile(t, filepath.Join(dir, "x"), 1)

	res := NewExecutor(fsops.NewRealFS(), ExecuteOptions{Level: ConfirmDir}, nil, nil, nil).Execute(&planner.DeletionPlan{
		Directories: []planner.DirectoryCandidate{dirCandidate(dir)},
	})

	if len(res.Declined) != 1 || !exists(t, dir) {
		t.Errorf("declined = %v; directory must survive", res.Declined)
	}
}

func TestExecutor_MissingEntriesAreSkipped(t *testing.T) {
	root := t.TempDir()
	res := NewExecutor(fsops.NewRealFS(), ExecuteOptions{Level: ConfirmForce}, nil, nil, nil).Execute(&planner.DeletionPlan{
		Directories: []planner.DirectoryCandidate{dirCandidate(filepath.Join(root, "gone"))},
		Files:       []planner.FileCandidate{{Path: filepath.Join(root, "gone.nupkg")}},
	})

	if len(res.Skipped) != 2 || len(res.Failures) != 0 {
		t.Errorf("skipped=%v failures=%v", res.Skipped, res.Failures)
	}
}
