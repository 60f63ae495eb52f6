package planner

import (
	"sort"
	"strings"
)

// knownTFMs lists the target framework folder names recognized when
// narrowing a primary output directory. Comparison is case-insensitive.
var knownTFMs = []string{
	"netcoreapp1.0", "netcoreapp1.1",
	"netcoreapp2.0", "netcoreapp2.1", "netcoreapp2.2",
	"netcoreapp3.0", "netcoreapp3.1",
	"net5.0", "net6.0", "net7.0", "net8.0", "net9.0", "net10.0",

	"netstandard1.0", "netstandard1.1", "netstandard1.2", "netstandard1.3",
	"netstandard1.4", "netstandard1.5", "netstandard1.6",
	"netstandard2.0", "netstandard2.1",

	"net11", "net20", "net35", "net40", "net403",
	"net45", "net451", "net452",
	"net46", "net461", "net462",
	"net47", "net471", "net472", "net48", "net481",
}

var tfmSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(knownTFMs))
	for _, t := range knownTFMs {
		m[t] = struct{}{}
	}
	return m
}()

// IsTFM reports whether name is a recognized target framework folder name.
//
// Besides the plain identifiers, the OS-specific form of net5.0 and later is
// accepted (net8.0-windows, net8.0-android34.0, net9.0-ios18.0).
func IsTFM(name string) bool {
	name = strings.ToLower(name)
	if _, ok := tfmSet[name]; ok {
		return true
	}

	base, platform, found := strings.Cut(name, "-")
	if !found || !supportsPlatformSuffix(base) {
		return false
	}
	return validPlatform(platform)
}

// KnownTFMs returns the recognized identifiers in table order.
func KnownTFMs() []string {
	out := make([]string, len(knownTFMs))
	copy(out, knownTFMs)
	return out
}

// SortedTFMs returns the recognized identifiers sorted lexicographically.
func SortedTFMs() []string {
	out := KnownTFMs()
	sort.Strings(out)
	return out
}

// supportsPlatformSuffix is true for netN.0 with N >= 5.
func supportsPlatformSuffix(base string) bool {
	if _, ok := tfmSet[base]; !ok {
		return false
	}
	if !strings.HasPrefix(base, "net") || strings.HasPrefix(base, "netcoreapp") || strings.HasPrefix(base, "netstandard") {
		return false
	}
	return strings.Contains(base, ".")
}

// validPlatform accepts an OS name optionally followed by a dotted version:
// windows, windows10.0.19041.0, android34.0.
func validPlatform(p string) bool {
	i := 0
	for i < len(p) && p[i] >= 'a' && p[i] <= 'z' {
		i++
	}
	if i == 0 {
		return false
	}
	rest := p[i:]
	if rest == "" {
		return true
	}
	if rest[0] < '0' || rest[0] > '9' {
		return false
	}
	for _, part := range strings.Split(rest, ".") {
		if part == "" {
			return false
		}
		for j := 0; j < len(part); j++ {
			if part[j] < '0' || part[j] > '9' {
				return false
			}
		}
	}
	return true
}
