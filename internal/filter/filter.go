// Package filter selects the rows of a cargo batch that match a composite
// predicate. Every constraint is optional and all active constraints must
// hold. Filtering never fails: a constraint that cannot be interpreted is
// treated as absent.
package filter

import (
	"math"
	"strings"

	"cargopipe/internal/cargo"
)

// Spec is a composite filter. The zero value matches every row.
type Spec struct {
	// Categories keeps rows whose category is listed. Empty means any.
	Categories []cargo.Category `json:"categories" yaml:"categories"`
	// WeightBuckets keeps rows whose kg falls in at least one listed
	// "<min>-<max>" bucket. Labels that do not parse are ignored.
	WeightBuckets []string `json:"weight_buckets" yaml:"weight_buckets"`
	// PriceMin and PriceMax bound price inclusively. Nil or NaN means no bound.
	PriceMin *float64 `json:"price_min,omitempty" yaml:"price_min,omitempty"`
	PriceMax *float64 `json:"price_max,omitempty" yaml:"price_max,omitempty"`
	// NameQuery keeps rows whose name contains it, case-sensitively.
	NameQuery string `json:"name_query,omitempty" yaml:"name_query,omitempty"`
}

// compiled is a Spec resolved once per call.
type compiled struct {
	categories map[cargo.Category]struct{}
	buckets    []cargo.Bucket
	hasMin     bool
	min        float64
	hasMax     bool
	max        float64
	name       string
}

func bound(p *float64) (float64, bool) {
	if p == nil || math.IsNaN(*p) {
		return 0, false
	}
	return *p, true
}

func compile(s Spec) compiled {
	var c compiled
	if len(s.Categories) > 0 {
		c.categories = make(map[cargo.Category]struct{}, len(s.Categories))
		for _, cat := range s.Categories {
			c.categories[cat] = struct{}{}
		}
	}
	for _, label := range s.WeightBuckets {
		if b, err := cargo.ParseBucket(label); err == nil {
			c.buckets = append(c.buckets, b)
		}
	}
	c.min, c.hasMin = bound(s.PriceMin)
	c.max, c.hasMax = bound(s.PriceMax)
	c.name = s.NameQuery
	return c
}

// IsZero reports whether s constrains nothing.
func (s Spec) IsZero() bool {
	c := compile(s)
	return c.categories == nil && len(c.buckets) == 0 && !c.hasMin && !c.hasMax && c.name == ""
}

// match evaluates the cheap, most selective checks first.
func (c *compiled) match(v cargo.View) bool {
	if c.categories != nil {
		if _, ok := c.categories[v.Category]; !ok {
			return false
		}
	}
	if len(c.buckets) > 0 {
		if !v.HasKg || !cargo.IsFinite(v.Kg) {
			return false
		}
		in := false
		for _, b := range c.buckets {
			if b.Contains(v.Kg) {
				in = true
				break
			}
		}
		if !in {
			return false
		}
	}
	if c.hasMin || c.hasMax {
		if !cargo.IsFinite(v.Price) {
			return false
		}
		if c.hasMin && v.Price < c.min {
			return false
		}
		if c.hasMax && v.Price > c.max {
			return false
		}
	}
	if c.name != "" && !strings.Contains(v.Name, c.name) {
		return false
	}
	return true
}

// Match reports whether a single row satisfies s.
func Match[T cargo.Viewer](row T, s Spec) bool {
	c := compile(s)
	return c.match(row.View())
}

// Apply returns the rows that satisfy s, in their original order. The result
// is always a new slice; rows is never modified.
func Apply[T cargo.Viewer](rows []T, s Spec) []T {
	c := compile(s)
	out := make([]T, 0, len(rows))
	for i := range rows {
		if c.match(rows[i].View()) {
			out = append(out, rows[i])
		}
	}
	return out
}
