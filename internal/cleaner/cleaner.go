// Package cleaner validates raw cargo batches and keeps only rows that satisfy
// every clean invariant.
//
// Each row runs through an ordered, short-circuit chain of checks:
//
//  1. status present and a known Status
//  2. category a known Category
//  3. price finite and >= 0
//  4. kg present and finite
//  5. id a canonical v4 UUID not already accepted in this scan
//
// Duplicate ids resolve keep-first: the earliest otherwise-valid row wins and
// later rows with the same id are removed. The scan runs under a wall-clock
// budget; exceeding it fails the whole call with ErrTimeout and no partial
// output.
package cleaner

import (
	"errors"
	"fmt"
	"time"

	"cargopipe/internal/cargo"
)

const (
	// DefaultTimeout is the scan budget used when none is configured.
	DefaultTimeout = 2000 * time.Millisecond

	// clockEvery is how many rows are checked between clock polls.
	clockEvery = 64
)

// ErrTimeout reports that a scan ran past its budget.
var ErrTimeout = errors.New("clean exceeded time budget")

// Reason names the check that rejected a row.
type Reason string

const (
	ReasonStatus    Reason = "status"
	ReasonCategory  Reason = "category"
	ReasonPrice     Reason = "price"
	ReasonKg        Reason = "kg"
	ReasonID        Reason = "id"
	ReasonDuplicate Reason = "duplicate"
)

// Reasons lists every Reason in check order.
var Reasons = []Reason{ReasonStatus, ReasonCategory, ReasonPrice, ReasonKg, ReasonID, ReasonDuplicate}

// Result is the output of Clean. Rows is a new slice; the input batch is not
// touched.
type Result struct {
	Rows           []cargo.CleanCargo
	RemovedCount   int
	RemainingCount int
	Duration       time.Duration
}

// DurationMs returns Duration in whole milliseconds.
func (r Result) DurationMs() int64 { return r.Duration.Milliseconds() }

type options struct {
	timeout  time.Duration
	now      func() time.Time
	onReject func(index int, reason Reason)
}

// Option customizes Clean.
type Option func(*options)

// WithTimeout sets the scan budget. Non-positive values keep DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithClock overrides the clock used for the budget and Duration.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRejectHook registers fn to observe each removed row by input index and
// the check that removed it. fn must not retain or modify the batch.
func WithRejectHook(fn func(index int, reason Reason)) Option {
	return func(o *options) { o.onReject = fn }
}

// Check runs the per-row part of the chain (checks 1-4 and the id format)
// and returns the first failing Reason, or "" when the row passes. It does
// not know about duplicates.
func Check(r cargo.RawCargo) Reason {
	if r.Status == nil || !r.Status.Valid() {
		return ReasonStatus
	}
	if !r.Category.Valid() {
		return ReasonCategory
	}
	if !cargo.IsFinite(r.Price) || r.Price < 0 {
		return ReasonPrice
	}
	if r.Kg == nil || !cargo.IsFinite(*r.Kg) {
		return ReasonKg
	}
	if !cargo.IsUUIDv4(r.ID) {
		return ReasonID
	}
	return ""
}

// Clean scans rows and returns the valid, de-duplicated subset in input
// order.
func Clean(rows []cargo.RawCargo, opts ...Option) (Result, error) {
	o := options{timeout: DefaultTimeout, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	start := o.now()
	out := make([]cargo.CleanCargo, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	removed := 0

	for i := range rows {
		if i%clockEvery == 0 {
			if elapsed := o.now().Sub(start); elapsed > o.timeout {
				return Result{}, fmt.Errorf("%w: %s elapsed after %d of %d rows (budget %s)",
					ErrTimeout, elapsed, i, len(rows), o.timeout)
			}
		}

		r := &rows[i]
		reason := Check(*r)
		if reason == "" {
			if _, dup := seen[r.ID]; dup {
				reason = ReasonDuplicate
			}
		}
		if reason != "" {
			removed++
			if o.onReject != nil {
				o.onReject(i, reason)
			}
			continue
		}

		seen[r.ID] = struct{}{}
		out = append(out, cargo.CleanCargo{
			ID:        r.ID,
			Name:      r.Name,
			Category:  r.Category,
			Price:     r.Price,
			Status:    *r.Status,
			Kg:        *r.Kg,
			CreatedAt: r.CreatedAt,
		})
	}

	end := o.now()
	if elapsed := end.Sub(start); elapsed > o.timeout {
		return Result{}, fmt.Errorf("%w: %s elapsed over %d rows (budget %s)",
			ErrTimeout, elapsed, len(rows), o.timeout)
	}

	return Result{
		Rows:           out,
		RemovedCount:   removed,
		RemainingCount: len(out),
		Duration:       end.Sub(start),
	}, nil
}
