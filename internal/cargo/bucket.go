package cargo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// WeightBuckets is the fixed set of contiguous kilogram buckets offered to
// callers, spanning 1-40.
var WeightBuckets = []string{
	"1-5",
	"5-10",
	"10-15",
	"15-20",
	"20-25",
	"25-30",
	"30-35",
	"35-40",
}

// ErrBadNumber is returned by ParseNumStrict for empty or non-finite input.
var ErrBadNumber = errors.New("not a finite number")

// ParseNumStrict parses s as a finite float64. Blank strings, NaN and
// infinities are rejected.
func ParseNumStrict(s string) (float64, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, fmt.Errorf("%w: empty", ErrBadNumber)
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadNumber, s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrBadNumber, s)
	}
	return f, nil
}

// Bucket is the half-open interval [Min, Max) described by a weight bucket
// label.
type Bucket struct {
	Min float64
	Max float64
}

// ParseBucket parses a "<min>-<max>" label. Both ends must be finite and
// Min < Max.
func ParseBucket(label string) (Bucket, error) {
	lo, hi, ok := strings.Cut(label, "-")
	if !ok {
		return Bucket{}, fmt.Errorf("weight bucket %q: missing '-'", label)
	}
	min, err := ParseNumStrict(lo)
	if err != nil {
		return Bucket{}, fmt.Errorf("weight bucket %q: min: %w", label, err)
	}
	max, err := ParseNumStrict(hi)
	if err != nil {
		return Bucket{}, fmt.Errorf("weight bucket %q: max: %w", label, err)
	}
	if min >= max {
		return Bucket{}, fmt.Errorf("weight bucket %q: min must be < max", label)
	}
	return Bucket{Min: min, Max: max}, nil
}

// Contains reports whether kg lies in [Min, Max).
func (b Bucket) Contains(kg float64) bool {
	return kg >= b.Min && kg < b.Max
}

// String renders the bucket back into its label form.
func (b Bucket) String() string {
	return strconv.FormatFloat(b.Min, 'f', -1, 64) + "-" + strconv.FormatFloat(b.Max, 'f', -1, 64)
}
