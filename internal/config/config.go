// Package config defines the serializable configuration model for a cargo
// pipeline run. A Pipeline can be decoded from JSON or YAML pipeline files
// (configs/pipelines/*.json, *.yaml) and passed to the orchestrator as-is.
//
// Example (trimmed):
//
//	{
//	  "job": "nightly-food",
//	  "generate": { "categories": ["food"], "weight_buckets": ["5-10"], "price_min": -100, "price_max": 1000, "count": 1000 },
//	  "clean":    { "timeout_ms": 2000 },
//	  "filter":   { "target": "clean", "price_min": 0, "price_max": 100 },
//	  "runtime":  { "seed": 42, "runs": 4, "parallelism": 2 },
//	  "metrics":  { "backend": "pushgateway", "pushgateway_url": "http://localhost:9091" }
//	}
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"cargopipe/internal/cargo"
	"cargopipe/internal/cleaner"
	"cargopipe/internal/filter"
	"cargopipe/internal/generator"
)

// Filter targets select which batch the filter step reads.
const (
	TargetAuto  = "auto"
	TargetRaw   = "raw"
	TargetClean = "clean"
)

// Metrics backend names.
const (
	BackendNone        = "none"
	BackendPushgateway = "pushgateway"
	BackendDatadog     = "datadog"
)

const (
	DefaultJob            = "cargo_job"
	DefaultPushgatewayURL = "http://localhost:9091"
	DefaultDatadogAddr    = "127.0.0.1:8125"
	DefaultNamespace      = "cargopipe"
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the pipeline for logs and metric labels.
	Job string `json:"job" yaml:"job"`

	// Generate holds the generation request.
	Generate generator.Params `json:"generate" yaml:"generate"`

	Clean   Clean         `json:"clean" yaml:"clean"`
	Filter  Filter        `json:"filter" yaml:"filter"`
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`
	Metrics Metrics       `json:"metrics" yaml:"metrics"`
}

// Clean configures the validation step.
type Clean struct {
	// Enabled defaults to true when omitted.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// TimeoutMs is the scan budget. Zero or negative uses the cleaner default.
	TimeoutMs int `json:"timeout_ms" yaml:"timeout_ms"`
}

// IsEnabled reports whether the clean step runs.
func (c Clean) IsEnabled() bool { return c.Enabled == nil || *c.Enabled }

// Timeout returns the configured budget, or cleaner.DefaultTimeout.
func (c Clean) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return cleaner.DefaultTimeout
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Filter configures the filter step. The predicate fields sit next to Target
// in the file.
type Filter struct {
	// Target is one of auto, raw, clean. Auto reads the clean batch when the
	// clean step is enabled and the raw batch otherwise.
	Target string `json:"target" yaml:"target"`

	filter.Spec `yaml:",inline"`
}

// RuntimeConfig controls seeding and how many independent runs execute.
type RuntimeConfig struct {
	// Seed makes runs reproducible. Nil draws from an ambient source.
	Seed *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Runs is the number of independent pipeline runs; run i uses Seed+i.
	Runs int `json:"runs" yaml:"runs"`

	// Parallelism bounds how many runs execute at once.
	Parallelism int `json:"parallelism" yaml:"parallelism"`
}

// Metrics selects and configures the metrics backend.
type Metrics struct {
	Backend        string `json:"backend" yaml:"backend"`
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr" yaml:"datadog_addr"`
	Namespace      string `json:"namespace" yaml:"namespace"`
}

// Load reads a pipeline file. Files ending in .yaml or .yml are decoded as
// YAML; anything else as JSON. Unknown fields are rejected in both formats.
func Load(path string) (Pipeline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(b)
	default:
		return DecodeJSON(b)
	}
}

// DecodeJSON decodes a JSON pipeline document.
func DecodeJSON(b []byte) (Pipeline, error) {
	var p Pipeline
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config: %w", err)
	}
	return p, nil
}

// DecodeYAML decodes a YAML pipeline document.
func DecodeYAML(b []byte) (Pipeline, error) {
	var p Pipeline
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config: %w", err)
	}
	return p, nil
}

// WithDefaults returns a copy of p with omitted values filled in: empty
// category, bucket and status lists fall back to the full fixed sets, and
// runtime and metrics settings get their defaults. p is not modified.
func (p Pipeline) WithDefaults() Pipeline {
	out := p
	if strings.TrimSpace(out.Job) == "" {
		out.Job = DefaultJob
	}

	g := &out.Generate
	if len(g.Categories) == 0 {
		g.Categories = slices.Clone(cargo.Categories)
	}
	if len(g.WeightBuckets) == 0 {
		g.WeightBuckets = slices.Clone(cargo.WeightBuckets)
	}
	if len(g.Statuses) == 0 {
		g.Statuses = slices.Clone(cargo.Statuses)
	}

	if out.Filter.Target == "" {
		out.Filter.Target = TargetAuto
	}

	if out.Runtime.Runs <= 0 {
		out.Runtime.Runs = 1
	}
	if out.Runtime.Parallelism <= 0 {
		out.Runtime.Parallelism = 1
	}

	if out.Metrics.Backend == "" {
		out.Metrics.Backend = BackendNone
	}
	if out.Metrics.PushgatewayURL == "" {
		out.Metrics.PushgatewayURL = DefaultPushgatewayURL
	}
	if out.Metrics.DatadogAddr == "" {
		out.Metrics.DatadogAddr = DefaultDatadogAddr
	}
	if out.Metrics.Namespace == "" {
		out.Metrics.Namespace = DefaultNamespace
	}
	return out
}

// FilterTarget resolves Target against the clean step. It returns TargetRaw
// or TargetClean.
func (p Pipeline) FilterTarget() string {
	switch p.Filter.Target {
	case TargetRaw:
		return TargetRaw
	case TargetClean:
		return TargetClean
	default:
		if p.Clean.IsEnabled() {
			return TargetClean
		}
		return TargetRaw
	}
}
