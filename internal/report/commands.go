// Package report renders run results: the shell commands a dry run would
// execute, and a JSON report file.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/danieljhkim/binsweep/internal/planner"
)

// Shell selects the command dialect of the dry-run dump.
type Shell int

const (
	// ShellPOSIX renders rm commands
	ShellPOSIX Shell = iota

	// ShellCmd renders rmdir/del for cmd.exe
	ShellCmd
)

// ShellFor returns the dialect native to goos.
func ShellFor(goos string) Shell {
	if goos == "windows" {
		return ShellCmd
	}
	return ShellPOSIX
}

// Commands lists one removal command per existing loose file and per
// directory that holds something, files first.
func Commands(sum *planner.Summary, shell Shell) []string {
	cmds := make([]string, 0, len(sum.Files)+len(sum.Directories))
	for _, f := range sum.Files {
		cmds = append(cmds, fileCommand(f.Path, shell))
	}
	for _, d := range sum.Directories {
		cmds = append(cmds, dirCommand(d.Path, shell))
	}
	return cmds
}

// WriteCommands writes Commands to w, one per line.
func WriteCommands(w io.Writer, sum *planner.Summary, shell Shell) error {
	for _, c := range Commands(sum, shell) {
		if _, err := fmt.Fprintln(w, c); err != nil {
			return err
		}
	}
	return nil
}

func dirCommand(path string, shell Shell) string {
	if shell == ShellCmd {
		return fmt.Sprintf(`rmdir /q /s "%s"`, path)
	}
	return "rm -rf " + posixQuote(path)
}

func fileCommand(path string, shell Shell) string {
	if shell == ShellCmd {
		return fmt.Sprintf(`del "%s"`, path)
	}
	return "rm -f " + posixQuote(path)
}

// posixQuote single-quotes s for sh.
func posixQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
