package config

import (
	"fmt"
	"math"
	"strings"

	"cargopipe/internal/cargo"
	"cargopipe/internal/generator"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that should be surfaced to users but
	// does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "generate.count",
// "filter.weight_buckets[1]"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// Empty category, bucket and status lists are not reported: WithDefaults
// fills them with the full sets. ValidatePipeline does not mutate p.
//
// Example:
//
//	p, err := config.Load(path)
//	if err != nil { ... }
//	for _, iss := range config.ValidatePipeline(p) {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  fmt.Sprintf("job is empty; runs and metrics will be labeled %q", DefaultJob),
		})
	}
	issues = append(issues, validateGenerate(p.Generate)...)
	issues = append(issues, validateClean(p.Clean)...)
	issues = append(issues, validateFilter(p.Filter, p.Clean)...)
	issues = append(issues, validateRuntime(p.Runtime)...)
	issues = append(issues, validateMetrics(p.Metrics)...)

	return issues
}

// validateGenerate mirrors generator.Params.Validate but reports every
// problem instead of the first.
func validateGenerate(g generator.Params) []Issue {
	var issues []Issue

	for i, c := range g.Categories {
		if !c.Valid() {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("generate.categories[%d]", i),
				Message:  fmt.Sprintf("unknown category %q", c),
			})
		}
	}
	for i, label := range g.WeightBuckets {
		if _, err := cargo.ParseBucket(label); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("generate.weight_buckets[%d]", i),
				Message:  err.Error(),
			})
		}
	}
	for i, s := range g.Statuses {
		if !s.Valid() {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("generate.statuses[%d]", i),
				Message:  fmt.Sprintf("unknown status %q", s),
			})
		}
	}

	if !cargo.IsFinite(g.PriceMin) || !cargo.IsFinite(g.PriceMax) || g.PriceMin >= g.PriceMax {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "generate.price_min",
			Message:  fmt.Sprintf("price range [%v, %v) is empty; price_min must be < price_max", g.PriceMin, g.PriceMax),
		})
	} else if g.PriceMax <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "generate.price_max",
			Message:  "every generated price is negative; the clean step will remove all rows",
		})
	}

	switch {
	case g.Count < 1:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "generate.count",
			Message:  fmt.Sprintf("count=%d; must be at least 1", g.Count),
		})
	case g.Count > generator.MaxCount:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "generate.count",
			Message:  fmt.Sprintf("count=%d exceeds the %d row cap", g.Count, generator.MaxCount),
		})
	}

	return issues
}

func validateClean(c Clean) []Issue {
	var issues []Issue
	if c.TimeoutMs < 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "clean.timeout_ms",
			Message:  fmt.Sprintf("timeout_ms=%d; non-positive budgets fall back to the default", c.TimeoutMs),
		})
	}
	return issues
}

// validateFilter flags constraints the filter engine would silently ignore
// or that can never match.
func validateFilter(f Filter, c Clean) []Issue {
	var issues []Issue

	switch f.Target {
	case "", TargetAuto, TargetRaw:
	case TargetClean:
		if !c.IsEnabled() {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "filter.target",
				Message:  "filter.target is clean but the clean step is disabled",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "filter.target",
			Message:  fmt.Sprintf("unknown filter target %q; expected auto, raw or clean", f.Target),
		})
	}

	for i, cat := range f.Categories {
		if !cat.Valid() {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     fmt.Sprintf("filter.categories[%d]", i),
				Message:  fmt.Sprintf("unknown category %q never matches", cat),
			})
		}
	}

	parsed := 0
	for i, label := range f.WeightBuckets {
		if _, err := cargo.ParseBucket(label); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     fmt.Sprintf("filter.weight_buckets[%d]", i),
				Message:  fmt.Sprintf("%v; label will be ignored", err),
			})
			continue
		}
		parsed++
	}
	if len(f.WeightBuckets) > 0 && parsed == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "filter.weight_buckets",
			Message:  "no bucket label parses; the weight constraint is inactive",
		})
	}

	if f.PriceMin != nil && f.PriceMax != nil && !math.IsNaN(*f.PriceMin) && !math.IsNaN(*f.PriceMax) && *f.PriceMin > *f.PriceMax {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "filter.price_min",
			Message:  fmt.Sprintf("price_min=%v > price_max=%v; the filter matches nothing", *f.PriceMin, *f.PriceMax),
		})
	}

	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.Runs < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.runs",
			Message:  "runs must not be negative",
		})
	}
	if r.Parallelism < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.parallelism",
			Message:  "parallelism must not be negative",
		})
	}
	if r.Runs > 1 && r.Parallelism > r.Runs {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.parallelism",
			Message:  fmt.Sprintf("parallelism=%d exceeds runs=%d; extra slots stay idle", r.Parallelism, r.Runs),
		})
	}

	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", BackendNone:
	case BackendPushgateway:
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "metrics.pushgateway_url",
				Message:  fmt.Sprintf("no pushgateway_url; %s will be used", DefaultPushgatewayURL),
			})
		}
	case BackendDatadog:
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "metrics.datadog_addr",
				Message:  fmt.Sprintf("no datadog_addr; %s will be used", DefaultDatadogAddr),
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; expected none, pushgateway or datadog", m.Backend),
		})
	}

	return issues
}
