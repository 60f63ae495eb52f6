// Package pathx roots untrusted path strings and answers containment queries.
//
// Paths reported by the build backend are relative to the project directory,
// may carry Windows separators or extended-length prefixes, and occasionally
// contain garbage. Everything that ends up in a deletion plan goes through
// RootPath first; IsNestedStrictlyBelow is the only primitive the safety gate
// uses to decide whether removing one directory would destroy another path.
package pathx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/text/cases"
)

// ErrInvalidPath indicates a malformed or unsupported path string.
var ErrInvalidPath = errors.New("invalid path")

const (
	devicePrefix   = `\\.\`
	extendedPrefix = `\\?\`
)

// invalidChars lists characters that can never appear in a path on the
// current platform.
var invalidChars = func() string {
	if runtime.GOOS == "windows" {
		var b strings.Builder
		for c := rune(0); c < 32; c++ {
			b.WriteRune(c)
		}
		b.WriteString(`"<>|`)
		return b.String()
	}
	return "\x00"
}()

// RootPath turns candidate into a fully qualified, cleaned path. Relative
// candidates are combined with baseDir.
//
// The literal "." and ".." are resolved against the process working directory
// rather than baseDir. Callers that need baseDir semantics must pass "./" or
// "../" forms.
func RootPath(candidate, baseDir string) (string, error) {
	trimmed := strings.TrimLeft(candidate, " \t")
	if strings.TrimSpace(candidate) == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	if candidate == "." || candidate == ".." {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
		}
		return RootPath(filepath.Join(cwd, candidate), cwd)
	}
	if strings.HasPrefix(trimmed, devicePrefix) {
		return "", fmt.Errorf("%w: device path %q not supported", ErrInvalidPath, candidate)
	}
	if strings.HasPrefix(trimmed, "~") {
		return "", fmt.Errorf("%w: home-relative path %q not supported", ErrInvalidPath, candidate)
	}
	if strings.ContainsAny(candidate, invalidChars) {
		return "", fmt.Errorf("%w: %q contains invalid characters", ErrInvalidPath, candidate)
	}

	if strings.HasPrefix(candidate, extendedPrefix) {
		rest := candidate[len(extendedPrefix):]
		if rest == "" {
			if baseDir == "" {
				return "", fmt.Errorf("%w: empty extended-length path", ErrInvalidPath)
			}
			return Abs(baseDir)
		}
		candidate = rest
	}

	candidate = normalizeSeparators(candidate)
	if !filepath.IsAbs(candidate) {
		if baseDir == "" {
			return "", fmt.Errorf("%w: relative path %q without base directory", ErrInvalidPath, candidate)
		}
		candidate = filepath.Join(normalizeSeparators(baseDir), candidate)
	}

	abs, err := filepath.Abs(candidate)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	return abs, nil
}

// Abs roots p against the process working directory.
func Abs(p string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	return RootPath(p, cwd)
}

// IsNestedStrictlyBelow reports whether target, once rooted against
// baseDirRooted, lies inside baseDirRooted with at least one additional path
// segment. A path is never nested below itself, and "/repo/ax" is not nested
// below "/repo/a".
//
// The comparison is case-insensitive. On case-sensitive filesystems this can
// only produce extra positives, which makes callers stricter.
func IsNestedStrictlyBelow(target, baseDirRooted string) bool {
	switch strings.TrimSpace(target) {
	case "", ".", "..":
		return false
	}
	if strings.TrimSpace(baseDirRooted) == "" {
		return false
	}

	base, err := Abs(baseDirRooted)
	if err != nil {
		return false
	}
	rooted, err := RootPath(target, base)
	if err != nil {
		return false
	}

	t := Key(rooted, false)
	b := Key(base, false)
	if t == b {
		return false
	}
	if !strings.HasSuffix(b, string(filepath.Separator)) {
		b += string(filepath.Separator)
	}
	return strings.HasPrefix(t, b)
}

// Key returns the comparison key for a rooted path: cleaned, without a
// trailing separator and, unless caseSensitive is set, case folded.
func Key(path string, caseSensitive bool) string {
	p := filepath.Clean(normalizeSeparators(path))
	if caseSensitive {
		return p
	}
	// Casers are stateful; one per call keeps Key safe for concurrent use.
	return cases.Fold().String(p)
}

// Equal reports whether a and b name the same location under the given
// case sensitivity.
func Equal(a, b string, caseSensitive bool) bool {
	return Key(a, caseSensitive) == Key(b, caseSensitive)
}

func normalizeSeparators(p string) string {
	if filepath.Separator == '/' {
		return strings.ReplaceAll(p, `\`, "/")
	}
	return filepath.FromSlash(p)
}
