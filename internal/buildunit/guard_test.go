package buildunit

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryGuard_TryClaim(t *testing.T) {
	g := NewQueryGuard(false)

	assert.True(t, g.TryClaim("/repo/A/A.csproj", "Debug", ""))
	assert.False(t, g.TryClaim("/repo/A/A.csproj", "Debug", ""))
	assert.False(t, g.TryClaim("/REPO/a/A.csproj", "debug", ""), "casing does not create a new key")
	assert.True(t, g.TryClaim("/repo/A/A.csproj", "Release", ""))
	assert.True(t, g.TryClaim("/repo/A/A.csproj", "Debug", "x64"))
	assert.True(t, g.TryClaim("/repo/B/B.csproj", "Debug", ""))
}

func TestQueryGuard_ConcurrentClaimsSingleWinner(t *testing.T) {
	g := NewQueryGuard(false)

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryClaim("/repo/A/A.vcxproj", "Release", "Win32") {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}
