package msbuild

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrQueryFailed is returned when a property query produced nothing usable.
var ErrQueryFailed = errors.New("property query failed")

// DefaultTimeout bounds a single property query.
const DefaultTimeout = 2 * time.Minute

// Runner starts a process and returns its standard output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name in dir. A non-zero exit is returned as an error carrying
// the captured stderr.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), fmt.Errorf("%s failed: %w\nstderr: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Client queries evaluated project properties through a Backend.
type Client struct {
	backend    Backend
	runner     Runner
	timeout    time.Duration
	properties []string
}

// NewClient creates a Client. A zero timeout uses DefaultTimeout and a nil
// runner uses ExecRunner.
func NewClient(backend Backend, runner Runner, timeout time.Duration) *Client {
	if runner == nil {
		runner = ExecRunner{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		backend:    backend,
		runner:     runner,
		timeout:    timeout,
		properties: DefaultProperties,
	}
}

// Backend returns the backend the client runs.
func (c *Client) Backend() Backend {
	return c.backend
}

// Query evaluates the project at projectPath for configuration and, when
// both are given, platform. The process runs in the project directory so a
// global.json next to the project selects the SDK.
func (c *Client) Query(ctx context.Context, projectPath, configuration, platform string) (Properties, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	name, args := c.backend.Command()
	args = append(args, c.Args(projectPath, configuration, platform)...)

	out, err := c.runner.Run(ctx, filepath.Dir(projectPath), name, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrQueryFailed, projectPath, err)
	}

	props, err := ParseOutput(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrQueryFailed, projectPath, err)
	}
	if len(props) == 0 {
		return nil, fmt.Errorf("%w: %s: no properties returned", ErrQueryFailed, projectPath)
	}
	return props, nil
}

// Args returns the msbuild arguments for one query.
func (c *Client) Args(projectPath, configuration, platform string) []string {
	args := []string{"-getproperty:" + strings.Join(c.properties, ",")}
	if configuration != "" {
		args = append(args, "-p:Configuration="+configuration)
		if platform != "" {
			args = append(args, "-p:Platform="+platform)
		}
	}
	return append(args, projectPath)
}
