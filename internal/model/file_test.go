package model

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedTypes(t *testing.T) {
	for _, ft := range AllowedTypes() {
		assert.True(t, ft.Allowed(), ft)
	}
	assert.False(t, FileType("exe").Allowed())
	assert.False(t, FileType("PDF").Allowed())
	assert.Len(t, AllowedTypes(), 10)
}

func TestNormalizeSummary(t *testing.T) {
	assert.Nil(t, NormalizeSummary(""))
	assert.Nil(t, NormalizeSummary("   \n\t"))

	s := NormalizeSummary("  A short summary.  ")
	require.NotNil(t, s)
	assert.Equal(t, "A short summary.", *s)

	long := NormalizeSummary(strings.Repeat("é", 400))
	require.NotNil(t, long)
	assert.Equal(t, MaxSummaryLength, len([]rune(*long)))
}

func TestNormalizeKeywords(t *testing.T) {
	got := NormalizeKeywords([]string{" ai ", "", "  ", "research", strings.Repeat("k", 80), "a", "b", "c", "d"})
	require.Len(t, got, MaxKeywords)
	assert.Equal(t, "ai", got[0])
	assert.Equal(t, "research", got[1])
	assert.Len(t, got[2], MaxKeywordLength)
	assert.Equal(t, []string{"a", "b", "c"}, got[3:])

	assert.NotNil(t, NormalizeKeywords(nil))
	assert.Empty(t, NormalizeKeywords(nil))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 12))
	assert.Equal(t, 1, TotalPages(1, 12))
	assert.Equal(t, 1, TotalPages(12, 12))
	assert.Equal(t, 3, TotalPages(25, 12))
	assert.Equal(t, 0, TotalPages(25, 0))
}

func TestWindow(t *testing.T) {
	offset, limit, ok := Window(1, 12)
	assert.True(t, ok)
	assert.Equal(t, 0, offset)
	assert.Equal(t, 12, limit)

	offset, limit, ok = Window(3, 12)
	assert.True(t, ok)
	assert.Equal(t, 24, offset)
	assert.Equal(t, 12, limit)
}

func TestWindowOverflow(t *testing.T) {
	_, _, ok := Window(768614336404564652, 12)
	assert.False(t, ok)
	_, _, ok = Window(math.MaxInt, 1)
	assert.True(t, ok)
	_, _, ok = Window(math.MaxInt, 2)
	assert.False(t, ok)
	_, _, ok = Window(0, 12)
	assert.False(t, ok)
}

func TestIndexed(t *testing.T) {
	assert.False(t, (&Document{}).Indexed())
	assert.False(t, (&Document{StoreName: "  "}).Indexed())
	assert.True(t, (&Document{StoreName: "fileSearchStores/abc"}).Indexed())
}
