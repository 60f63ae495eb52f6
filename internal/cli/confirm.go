package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/danieljhkim/binsweep/internal/engine"
)

// promptConfirmer asks y/n questions on a line-oriented terminal.
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptConfirmer(in io.Reader, out io.Writer) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm prints the question and accepts "y" or "yes". End of input
// declines.
func (c *promptConfirmer) Confirm(kind engine.ConfirmKind, path string) bool {
	_, _ = fmt.Fprintf(c.out, "Delete %s %s? (y|n) ", kind, path)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		_, _ = fmt.Fprintln(c.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
