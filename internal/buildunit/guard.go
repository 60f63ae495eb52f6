package buildunit

import (
	"strings"
	"sync"

	"github.com/danieljhkim/binsweep/internal/pathx"
)

// QueryGuard suppresses duplicate property queries for the same
// (unit, configuration, platform) triple. A unit listed in several solutions
// is only queried once per configuration.
type QueryGuard struct {
	caseSensitive bool
	seen          sync.Map
}

// NewQueryGuard creates an empty guard.
func NewQueryGuard(caseSensitive bool) *QueryGuard {
	return &QueryGuard{caseSensitive: caseSensitive}
}

// TryClaim records the triple and reports whether the caller is the first to
// claim it. Check and insert happen in one atomic step.
func (g *QueryGuard) TryClaim(unitPath, configuration, platform string) bool {
	_, loaded := g.seen.LoadOrStore(g.key(unitPath, configuration, platform), struct{}{})
	return !loaded
}

func (g *QueryGuard) key(unitPath, configuration, platform string) string {
	unit := unitPath
	if rooted, err := pathx.Abs(unitPath); err == nil {
		unit = rooted
	}
	return strings.ToLower(configuration) + "#" + strings.ToLower(platform) + "#" + pathx.Key(unit, g.caseSensitive)
}
