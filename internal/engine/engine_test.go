package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/danieljhkim/binsweep/internal/buildunit"
	"github.com/danieljhkim/binsweep/internal/discover"
	"github.com/danieljhkim/binsweep/internal/fsops"
	"github.com/danieljhkim/binsweep/internal/msbuild"
)

// Mock implementations for testing

type mockQuerier struct {
	mu    sync.Mutex
	props map[string]msbuild.Properties
	errs  map[string]error
	calls map[string]int
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{
		props: make(map[string]msbuild.Properties),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func queryKey(path, configuration, platform string) string {
	return path + "|" + configuration + "|" + platform
}

// set registers props for every configuration of path.
func (m *mockQuerier) set(path string, props msbuild.Properties) {
	m.props[path] = props
}

func (m *mockQuerier) fail(path string, err error) {
	m.errs[path] = err
}

func (m *mockQuerier) Query(_ context.Context, path, configuration, platform string) (msbuild.Properties, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[queryKey(path, configuration, platform)]++
	if err, ok := m.errs[path]; ok {
		return nil, err
	}
	props, ok := m.props[path]
	if !ok {
		return nil, fmt.Errorf("no properties for %s", path)
	}
	return props, nil
}

func (m *mockQuerier) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

type mockDiscoverer struct {
	results map[string]*discover.Result
}

func (m *mockDiscoverer) Discover(root string) (*discover.Result, error) {
	res, ok := m.results[root]
	if !ok {
		return nil, fmt.Errorf("%w: %s", discover.ErrRootNotFound, root)
	}
	return res, nil
}

// failingFS fails removals of paths below any of the configured prefixes.
type failingFS struct {
	*fsops.RealFS
	prefixes []string
}

func (f *failingFS) shouldFail(path string) bool {
	for _, p := range f.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (f *failingFS) Remove(path string) error {
	if f.shouldFail(path) {
		return &os.PathError{Op: "remove", Path: path, Err: os.ErrPermission}
	}
	return f.RealFS.Remove(path)
}

func (f *failingFS) RemoveAll(path string) error {
	if f.shouldFail(path) {
		return &os.PathError{Op: "removeall", Path: path, Err: os.ErrPermission}
	}
	return f.RealFS.RemoveAll(path)
}

type recordingConfirmer struct {
	answer bool
	asked  []string
}

func (c *recordingConfirmer) Confirm(kind ConfirmKind, path string) bool {
	c.asked = append(c.asked, kind.String()+" "+path)
	return c.answer
}

// Helpers

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

func mkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
}

func exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Lstat(path)
	if err == nil {
		return true
	}
	if !os.IsNotExist(err) {
		t.Fatalf("failed to stat %s: %v", path, err)
	}
	return false
}

// project creates a project file and returns its discovery entry.
func project(t *testing.T, path, container string, configs ...string) discover.Project {
	t.Helper()
	writeFile(t, path, 10)
	p := discover.Project{
		Path:      path,
		Container: container,
		Kind:      buildunit.KindOf(path),
	}
	for _, c := range configs {
		p.Configs = append(p.Configs, discover.Config{Configuration: c})
	}
	return p
}

// sdkProps are typical properties of an SDK-style project.
func sdkProps(name, tfm string) msbuild.Properties {
	return msbuild.Properties{
		msbuild.PropProjectName:                name,
		msbuild.PropOutDir:                     `bin\Debug\` + tfm + `\`,
		msbuild.PropBaseIntermediateOutputPath: `obj\`,
		msbuild.PropTargetFramework:            tfm,
	}
}

func unitRecord(t *testing.T, path string, containers ...string) *buildunit.Record {
	t.Helper()
	agg := buildunit.NewAggregator(false)
	if len(containers) == 0 {
		containers = []string{""}
	}
	for _, c := range containers {
		if err := agg.Record(buildunit.Observation{BuildUnitPath: path, ParentContainerPath: c}); err != nil {
			t.Fatalf("failed to record unit: %v", err)
		}
	}
	rec, ok := agg.Get(path)
	if !ok {
		t.Fatalf("unit %s not recorded", path)
	}
	return rec
}
