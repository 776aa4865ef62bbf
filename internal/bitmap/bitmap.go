// Package bitmap provides a fixed-size bitset over row positions. The
// generator uses one per defect kind to mark which rows carry it.
package bitmap

import "math/bits"

// Bitmap is a set of positions in [0, Len()) backed by 64-bit words.
type Bitmap struct {
	data []uint64
	n    int
}

// New allocates an empty bitmap for positions [0, n). n <= 0 yields an empty
// set that ignores every Add.
func New(n int) *Bitmap {
	if n <= 0 {
		return &Bitmap{}
	}
	return &Bitmap{data: make([]uint64, (n+63)/64), n: n}
}

// Len is the number of positions the bitmap covers.
func (b *Bitmap) Len() int { return b.n }

// Add sets position i. Out-of-range positions are ignored.
func (b *Bitmap) Add(i int) {
	if i < 0 || i >= b.n {
		return
	}
	b.data[i/64] |= 1 << uint(i%64)
}

// Has reports whether position i is set.
func (b *Bitmap) Has(i int) bool {
	if i < 0 || i >= b.n {
		return false
	}
	return b.data[i/64]&(1<<uint(i%64)) != 0
}

// Fill sets every position.
func (b *Bitmap) Fill() {
	for w := range b.data {
		b.data[w] = ^uint64(0)
	}
	if r := b.n % 64; r != 0 {
		b.data[len(b.data)-1] = 1<<uint(r) - 1
	}
}

// Count returns the number of set positions.
func (b *Bitmap) Count() int {
	c := 0
	for _, w := range b.data {
		c += bits.OnesCount64(w)
	}
	return c
}
