package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity_Identical(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("PowerEdge R740", "PowerEdge R740"))
	assert.Equal(t, 1.0, Similarity("PowerEdge  R740", "poweredge r740"))
}

func TestSimilarity_Empty(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("", "PowerEdge R740"))
	assert.Equal(t, 0.0, Similarity("PowerEdge R740", ""))
	assert.Equal(t, 0.0, Similarity("  ", ""))
}

func TestSimilarity_Partial(t *testing.T) {
	s := Similarity("PowerEdge R740", "PowerEdge R750")
	assert.Greater(t, s, 0.5)
	assert.Less(t, s, 1.0)
}

func TestSimilarity_Dissimilar(t *testing.T) {
	s := Similarity("PowerEdge R740", "Nexus 9300")
	assert.Less(t, s, 0.3)
}

func TestSimilarity_Symmetric(t *testing.T) {
	a, b := "Catalyst 9200", "Catalyst 9300"
	assert.InDelta(t, Similarity(a, b), Similarity(b, a), 1e-12)
}

func TestSimilarity_SingleRune(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("x", "x"))
	assert.Equal(t, 0.0, Similarity("x", "y")+0) // no shared bigrams
}
