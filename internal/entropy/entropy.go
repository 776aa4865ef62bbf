// Package entropy holds the random helpers shared by the generator: an
// injectable Source, uniform picks, alphanumeric strings, index sampling
// without replacement and an io.Reader view used to mint UUIDs.
//
// A Source is not safe for concurrent use. Each pipeline run owns one.
package entropy

import (
	crand "crypto/rand"
	"encoding/binary"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"cargopipe/internal/bitmap"
)

// Source is the minimal randomness contract. *rand.Rand from math/rand/v2
// satisfies it.
type Source interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// IntN returns a uniform value in [0, n). It panics if n <= 0.
	IntN(n int) int
	// Uint64 returns 64 uniformly random bits.
	Uint64() uint64
}

// New returns a deterministic Source for seed.
func New(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewAmbient returns a Source seeded from the operating system's entropy
// pool. Output is not reproducible.
func NewAmbient() Source {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		// crypto/rand does not fail on supported platforms; fall back to the
		// runtime-seeded global generator just in case.
		binary.LittleEndian.PutUint64(seed[:], rand.Uint64())
	}
	return rand.New(rand.NewChaCha8(seed))
}

// Pick returns a uniformly chosen element of items. items must be non-empty.
func Pick[T any](src Source, items []T) T {
	return items[src.IntN(len(items))]
}

// Between returns a uniform value in [min, max). min must be < max.
func Between(src Source, min, max float64) float64 {
	v := min + src.Float64()*(max-min)
	if v >= max {
		// Rounding can land exactly on max; keep the interval half-open.
		v = math.Nextafter(max, math.Inf(-1))
	}
	return v
}

const alnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Alnum returns a random alphanumeric string whose length is uniform in
// [minLen, maxLen].
func Alnum(src Source, minLen, maxLen int) string {
	n := minLen + src.IntN(maxLen-minLen+1)
	b := make([]byte, n)
	for i := range b {
		b[i] = alnum[src.IntN(len(alnum))]
	}
	return string(b)
}

// SampleIndices selects k distinct indices out of [0, n) uniformly without
// replacement and returns them as a bitmap over [0, n). k <= 0 selects
// nothing; k >= n selects everything.
//
// It runs a Fisher-Yates shuffle only over the first k positions, so the
// cost is O(n) regardless of how close k is to n.
func SampleIndices(src Source, n, k int) *bitmap.Bitmap {
	set := bitmap.New(n)
	if k <= 0 || n <= 0 {
		return set
	}
	if k >= n {
		set.Fill()
		return set
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + src.IntN(n-i)
		perm[i], perm[j] = perm[j], perm[i]
		set.Add(perm[i])
	}
	return set
}

// Reader adapts a Source to io.Reader so byte-oriented consumers (UUID
// minting) draw from the same stream.
type Reader struct {
	Src Source
}

// Read fills p from the Source. It never fails.
func (r Reader) Read(p []byte) (int, error) {
	var buf [8]byte
	for i := 0; i < len(p); i += 8 {
		binary.LittleEndian.PutUint64(buf[:], r.Src.Uint64())
		copy(p[i:], buf[:])
	}
	return len(p), nil
}

// UUID returns a version-4 UUID in canonical text form drawn from src.
func UUID(src Source) string {
	u, err := uuid.NewRandomFromReader(Reader{Src: src})
	if err != nil {
		// Reader never fails, so neither does NewRandomFromReader.
		panic(err)
	}
	return u.String()
}
