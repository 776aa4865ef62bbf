// Package generator produces batches of synthetic raw cargo rows with
// controlled defect ratios: a fixed share of rows get a null status, a fixed
// share get a null weight, and the share of negative prices follows the part
// of the requested price interval that lies below zero.
//
// Defect targets are exact, not probabilistic: the rows carrying each defect
// are chosen by sampling indices without replacement, independently per
// defect kind, so a single row may carry more than one defect.
package generator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"cargopipe/internal/cargo"
	"cargopipe/internal/entropy"
)

const (
	// MaxCount is the largest batch Generate accepts.
	MaxCount = 10000

	// NullStatusRatio is the share of rows generated with a nil status.
	NullStatusRatio = 0.05
	// NullKgRatio is the share of rows generated with a nil weight.
	NullKgRatio = 0.10

	nameMinLen = 8
	nameMaxLen = 16
)

var (
	// ErrInvalidParams reports parameters the caller must correct before
	// retrying.
	ErrInvalidParams = errors.New("invalid generation params")
	// ErrCapacityExceeded reports a Count above MaxCount.
	ErrCapacityExceeded = errors.New("generation capacity exceeded")
)

// Params describes one generation request.
type Params struct {
	Categories    []cargo.Category `json:"categories" yaml:"categories"`
	WeightBuckets []string         `json:"weight_buckets" yaml:"weight_buckets"`
	// Statuses is the sampling pool for non-null statuses; empty means all.
	Statuses []cargo.Status `json:"statuses" yaml:"statuses"`
	PriceMin float64        `json:"price_min" yaml:"price_min"`
	PriceMax float64        `json:"price_max" yaml:"price_max"`
	Count    int            `json:"count" yaml:"count"`
}

// Stats summarizes a generated batch. The defect counts are the targets the
// generator was asked to hit, which the batch matches exactly.
type Stats struct {
	GeneratedCount     int           `json:"generatedCount"`
	NullStatusCount    int           `json:"nullStatusCount"`
	NullKgCount        int           `json:"nullKgCount"`
	NegativePriceCount int           `json:"negativePriceCount"`
	GenerationStartAt  time.Time     `json:"generationStartAt"`
	GenerationEndAt    time.Time     `json:"generationEndAt"`
	GenerationDuration time.Duration `json:"generationDuration"`
}

// DurationMs returns GenerationDuration in whole milliseconds.
func (s Stats) DurationMs() int64 { return s.GenerationDuration.Milliseconds() }

// Result is the output of Generate. The caller owns Rows.
type Result struct {
	Rows  []cargo.RawCargo
	Stats Stats
}

type options struct {
	src entropy.Source
	now func() time.Time
}

// Option customizes Generate.
type Option func(*options)

// WithSource sets the randomness used for every draw. Defaults to an
// ambient, non-reproducible source.
func WithSource(src entropy.Source) Option {
	return func(o *options) {
		if src != nil {
			o.src = src
		}
	}
}

// WithClock overrides the clock used for CreatedAt and the stats window.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Targets holds the number of rows that will carry each defect.
type Targets struct {
	NullStatus    int
	NullKg        int
	NegativePrice int
}

// ComputeTargets derives the defect targets for p. p is assumed valid.
func ComputeTargets(p Params) Targets {
	t := Targets{
		NullStatus: int(math.Floor(float64(p.Count) * NullStatusRatio)),
		NullKg:     int(math.Floor(float64(p.Count) * NullKgRatio)),
	}
	t.NegativePrice = int(math.Floor(float64(p.Count) * NegativeRatio(p.PriceMin, p.PriceMax)))
	return t
}

// NegativeRatio is the fraction of [priceMin, priceMax) below zero, clamped
// to [0, 1]. It is zero whenever priceMin >= 0.
func NegativeRatio(priceMin, priceMax float64) float64 {
	if priceMin >= 0 {
		return 0
	}
	span := priceMax - priceMin
	if !(span > 0) {
		return 0
	}
	r := (math.Min(0, priceMax) - priceMin) / span
	return math.Max(0, math.Min(1, r))
}

// Validate checks p and returns an error wrapping ErrInvalidParams or
// ErrCapacityExceeded.
func (p Params) Validate() error {
	if len(p.Categories) == 0 {
		return fmt.Errorf("%w: categories must not be empty", ErrInvalidParams)
	}
	for _, c := range p.Categories {
		if !c.Valid() {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidParams, c)
		}
	}
	if len(p.WeightBuckets) == 0 {
		return fmt.Errorf("%w: weight buckets must not be empty", ErrInvalidParams)
	}
	for _, label := range p.WeightBuckets {
		if _, err := cargo.ParseBucket(label); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
	}
	for _, s := range p.Statuses {
		if !s.Valid() {
			return fmt.Errorf("%w: unknown status %q", ErrInvalidParams, s)
		}
	}
	if !cargo.IsFinite(p.PriceMin) || !cargo.IsFinite(p.PriceMax) || p.PriceMin >= p.PriceMax {
		return fmt.Errorf("%w: price range [%v, %v) is empty or not finite", ErrInvalidParams, p.PriceMin, p.PriceMax)
	}
	if p.Count < 1 {
		return fmt.Errorf("%w: count %d must be in [1, %d]", ErrInvalidParams, p.Count, MaxCount)
	}
	if p.Count > MaxCount {
		return fmt.Errorf("%w: count %d exceeds the %d row cap", ErrCapacityExceeded, p.Count, MaxCount)
	}
	return nil
}

// Generate builds p.Count raw rows. It fails without producing rows when p
// is invalid.
func Generate(p Params, opts ...Option) (Result, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	if o.src == nil {
		o.src = entropy.NewAmbient()
	}
	src := o.src

	buckets := make([]cargo.Bucket, len(p.WeightBuckets))
	for i, label := range p.WeightBuckets {
		// Already validated above.
		buckets[i], _ = cargo.ParseBucket(label)
	}
	pool := p.Statuses
	if len(pool) == 0 {
		pool = cargo.Statuses
	}

	start := o.now()
	targets := ComputeTargets(p)
	nullStatus := entropy.SampleIndices(src, p.Count, targets.NullStatus)
	nullKg := entropy.SampleIndices(src, p.Count, targets.NullKg)
	negPrice := entropy.SampleIndices(src, p.Count, targets.NegativePrice)

	negMax := math.Min(p.PriceMax, 0)
	posMin := math.Max(p.PriceMin, 0)

	rows := make([]cargo.RawCargo, p.Count)
	for i := range rows {
		r := cargo.RawCargo{
			ID:       entropy.UUID(src),
			Name:     entropy.Alnum(src, nameMinLen, nameMaxLen),
			Category: entropy.Pick(src, p.Categories),
		}
		if negPrice.Has(i) {
			r.Price = entropy.Between(src, p.PriceMin, negMax)
		} else {
			r.Price = entropy.Between(src, posMin, p.PriceMax)
		}
		if !nullKg.Has(i) {
			b := entropy.Pick(src, buckets)
			r.Kg = cargo.KgPtr(entropy.Between(src, b.Min, b.Max))
		}
		if !nullStatus.Has(i) {
			r.Status = cargo.StatusPtr(entropy.Pick(src, pool))
		}
		r.CreatedAt = o.now().UnixMilli()
		rows[i] = r
	}
	end := o.now()

	return Result{
		Rows: rows,
		Stats: Stats{
			GeneratedCount:     p.Count,
			NullStatusCount:    targets.NullStatus,
			NullKgCount:        targets.NullKg,
			NegativePriceCount: targets.NegativePrice,
			GenerationStartAt:  start,
			GenerationEndAt:    end,
			GenerationDuration: end.Sub(start),
		},
	}, nil
}
