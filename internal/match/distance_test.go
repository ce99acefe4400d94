package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEditDistance(t *testing.T) {
	tests := map[string]struct {
		a, b string
		want int
	}{
		"both empty":          {"", "", 0},
		"equal":               {"pooled", "pooled", 0},
		"from empty":          {"", "jdbc", 4},
		"to empty":            {"jdbc", "", 4},
		"substitution":        {"FIFO", "LIFO", 1},
		"insertion":           {"cacheEnable", "cacheEnabled", 1},
		"deletion":            {"useGeneratedKeys", "useGenratedKeys", 1},
		"adjacent swap":       {"tset", "test", 1},
		"swap at end":         {"managde", "managed", 1},
		"swap and substitute": {"ca", "abc", 3},
		"case counts":         {"POOLED", "pooled", 6},
		"classic":             {"kitten", "sitting", 3},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, EditDistance(tt.a, tt.b))
			assert.Equal(t, tt.want, EditDistance(tt.b, tt.a), "distance must be symmetric")
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("", ""), 1e-9)
	assert.InDelta(t, 0.0, Similarity("abc", "xyz"), 1e-9)
	assert.InDelta(t, 0.75, Similarity("tset", "test"), 1e-9)
	assert.InDelta(t, 2.0/3.0, Similarity("ab", "abc"), 1e-9)
}

func TestNormalizedSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		min  float64
	}{
		{"cacheEnabled", "cache_enabled", 1},
		{"LOCALCACHESCOPE", "localCacheScope", 1},
		{"lazyLoadingEnabled", "lazyLoadEnabled", 0.8},
		{"defualtFetchSize", "defaultFetchSize", 0.9},
	}

	for _, tt := range tests {
		assert.GreaterOrEqual(t, NormalizedSimilarity(tt.a, tt.b), tt.min, "%s vs %s", tt.a, tt.b)
	}
}

func BenchmarkEditDistance(b *testing.B) {
	for i := 0; i < b.N; i++ {
		EditDistance("autoMappingUnknownColumnBehavior", "autoMappingBehavior")
	}
}
