package entropy

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleIndices_ExactSizes(t *testing.T) {
	src := New(1)
	tests := []struct {
		n, k, want int
	}{
		{n: 10, k: 0, want: 0},
		{n: 10, k: -3, want: 0},
		{n: 10, k: 1, want: 1},
		{n: 10, k: 9, want: 9},
		{n: 10, k: 10, want: 10},
		{n: 10, k: 25, want: 10},
		{n: 10000, k: 9999, want: 9999},
		{n: 0, k: 5, want: 0},
	}
	for _, tt := range tests {
		set := SampleIndices(src, tt.n, tt.k)
		require.Equal(t, max(tt.n, 0), set.Len())
		assert.Equalf(t, tt.want, set.Count(), "n=%d k=%d", tt.n, tt.k)
	}
}

func TestSampleIndices_CoversAllPositions(t *testing.T) {
	src := New(7)
	const n = 20
	hits := make([]int, n)
	for i := 0; i < 2000; i++ {
		set := SampleIndices(src, n, 5)
		for j := range hits {
			if set.Has(j) {
				hits[j]++
			}
		}
	}
	// Each position is chosen with probability 1/4; 2000 trials put the
	// expected count at 500.
	for j, h := range hits {
		assert.Greaterf(t, h, 350, "position %d chosen %d times", j, h)
		assert.Lessf(t, h, 650, "position %d chosen %d times", j, h)
	}
}

func TestAlnum(t *testing.T) {
	src := New(3)
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		s := Alnum(src, 8, 16)
		require.GreaterOrEqual(t, len(s), 8)
		require.LessOrEqual(t, len(s), 16)
		for _, r := range s {
			require.Truef(t, strings.ContainsRune(alnum, r), "unexpected rune %q", r)
		}
		seen[len(s)] = true
	}
	assert.Len(t, seen, 9, "every length in [8,16] should occur")
}

func TestBetweenAndPick(t *testing.T) {
	src := New(11)
	for i := 0; i < 1000; i++ {
		v := Between(src, -5, 5)
		require.GreaterOrEqual(t, v, -5.0)
		require.Less(t, v, 5.0)
	}
	items := []string{"a", "b", "c"}
	got := map[string]int{}
	for i := 0; i < 300; i++ {
		got[Pick(src, items)]++
	}
	assert.Len(t, got, 3)
}

func TestUUIDIsV4AndSeeded(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 50; i++ {
		ida, idb := UUID(a), UUID(b)
		require.Equal(t, ida, idb)
		u, err := uuid.Parse(ida)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), u.Version())
		assert.Equal(t, uuid.RFC4122, u.Variant())
		assert.Len(t, ida, 36)
	}
	assert.NotEqual(t, UUID(New(1)), UUID(New(2)))
}

func TestReaderFillsOddLengths(t *testing.T) {
	r := Reader{Src: New(5)}
	p := make([]byte, 13)
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 13, n)
}

func TestAmbientSourcesDiffer(t *testing.T) {
	assert.NotEqual(t, NewAmbient().Uint64(), NewAmbient().Uint64())
}
