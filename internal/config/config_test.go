package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"cargopipe/internal/cargo"
	"cargopipe/internal/cleaner"
)

// -----------------------------------------------------------------------------
// Pipeline decoding tests
// -----------------------------------------------------------------------------
//
// These tests check that the JSON and YAML forms of a pipeline file decode
// into the same Go value, and that Load picks the decoder by extension.

const pipelineJSON = `{
  "job": "nightly-food",
  "generate": {
    "categories": ["food", "toys"],
    "weight_buckets": ["5-10"],
    "statuses": ["DELIVERED"],
    "price_min": -100,
    "price_max": 1000,
    "count": 1000
  },
  "clean": { "enabled": true, "timeout_ms": 1500 },
  "filter": {
    "target": "clean",
    "categories": ["food"],
    "weight_buckets": ["5-10"],
    "price_min": 0,
    "price_max": 100,
    "name_query": "a"
  },
  "runtime": { "seed": 42, "runs": 4, "parallelism": 2 },
  "metrics": { "backend": "pushgateway", "pushgateway_url": "http://gw:9091", "namespace": "cargo" }
}`

const pipelineYAML = `
job: nightly-food
generate:
  categories: [food, toys]
  weight_buckets: ["5-10"]
  statuses: [DELIVERED]
  price_min: -100
  price_max: 1000
  count: 1000
clean:
  enabled: true
  timeout_ms: 1500
filter:
  target: clean
  categories: [food]
  weight_buckets: ["5-10"]
  price_min: 0
  price_max: 100
  name_query: a
runtime:
  seed: 42
  runs: 4
  parallelism: 2
metrics:
  backend: pushgateway
  pushgateway_url: http://gw:9091
  namespace: cargo
`

func TestDecode_JSONAndYAMLAgree(t *testing.T) {
	t.Parallel()

	fromJSON, err := DecodeJSON([]byte(pipelineJSON))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	fromYAML, err := DecodeYAML([]byte(pipelineYAML))
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	if diff := cmp.Diff(fromJSON, fromYAML); diff != "" {
		t.Fatalf("JSON and YAML decode differ (-json +yaml):\n%s", diff)
	}

	p := fromJSON
	if p.Job != "nightly-food" {
		t.Fatalf("Job=%q", p.Job)
	}
	if got, want := p.Generate.Categories, []cargo.Category{cargo.CategoryFood, cargo.CategoryToys}; !cmp.Equal(got, want) {
		t.Fatalf("Generate.Categories=%v want %v", got, want)
	}
	if p.Generate.Count != 1000 || p.Generate.PriceMin != -100 || p.Generate.PriceMax != 1000 {
		t.Fatalf("unexpected generate block: %+v", p.Generate)
	}
	if p.Filter.PriceMin == nil || *p.Filter.PriceMin != 0 || p.Filter.PriceMax == nil || *p.Filter.PriceMax != 100 {
		t.Fatalf("filter price bounds not decoded: %+v", p.Filter.Spec)
	}
	if p.Filter.NameQuery != "a" || p.Filter.Target != TargetClean {
		t.Fatalf("unexpected filter block: %+v", p.Filter)
	}
	if p.Runtime.Seed == nil || *p.Runtime.Seed != 42 {
		t.Fatalf("seed not decoded: %+v", p.Runtime)
	}
	if p.Clean.Timeout() != 1500*time.Millisecond {
		t.Fatalf("Clean.Timeout()=%v", p.Clean.Timeout())
	}
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	if _, err := DecodeJSON([]byte(`{"job":"x","storage":{}}`)); err == nil {
		t.Fatalf("expected error for unknown JSON field")
	}
	if _, err := DecodeYAML([]byte("job: x\nstorage: {}\n")); err == nil {
		t.Fatalf("expected error for unknown YAML field")
	}
}

func TestLoad_ByExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	for _, path := range []string{
		write("p.json", pipelineJSON),
		write("p.yaml", pipelineYAML),
		write("p.YML", pipelineYAML),
	} {
		p, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s): %v", filepath.Base(path), err)
		}
		if p.Job != "nightly-food" {
			t.Fatalf("Load(%s): Job=%q", filepath.Base(path), p.Job)
		}
	}

	// YAML content in a .json file must not load.
	if _, err := Load(write("wrong.json", pipelineYAML)); err == nil {
		t.Fatalf("expected JSON decode error for YAML body")
	}
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestWithDefaults(t *testing.T) {
	t.Parallel()

	var p Pipeline
	d := p.WithDefaults()

	if d.Job == "" {
		t.Fatalf("expected default job")
	}
	if !cmp.Equal(d.Generate.Categories, cargo.Categories) {
		t.Fatalf("categories=%v", d.Generate.Categories)
	}
	if !cmp.Equal(d.Generate.WeightBuckets, cargo.WeightBuckets) {
		t.Fatalf("buckets=%v", d.Generate.WeightBuckets)
	}
	if !cmp.Equal(d.Generate.Statuses, cargo.Statuses) {
		t.Fatalf("statuses=%v", d.Generate.Statuses)
	}
	if d.Runtime.Runs != 1 || d.Runtime.Parallelism != 1 {
		t.Fatalf("runtime=%+v", d.Runtime)
	}
	if d.Metrics.Backend != BackendNone || d.Metrics.PushgatewayURL != DefaultPushgatewayURL ||
		d.Metrics.DatadogAddr != DefaultDatadogAddr || d.Metrics.Namespace != DefaultNamespace {
		t.Fatalf("metrics=%+v", d.Metrics)
	}
	if d.Filter.Target != TargetAuto {
		t.Fatalf("filter target=%q", d.Filter.Target)
	}
	if d.Clean.Timeout() != cleaner.DefaultTimeout || !d.Clean.IsEnabled() {
		t.Fatalf("clean=%+v", d.Clean)
	}

	// The defaults are copies; mutating them must not touch the lookup tables.
	d.Generate.Categories[0] = "garden"
	if cargo.Categories[0] == "garden" {
		t.Fatalf("WithDefaults aliased cargo.Categories")
	}

	// Explicit values survive.
	p.Generate.Categories = []cargo.Category{cargo.CategoryBooks}
	p.Runtime.Runs = 3
	d = p.WithDefaults()
	if !cmp.Equal(d.Generate.Categories, []cargo.Category{cargo.CategoryBooks}) || d.Runtime.Runs != 3 {
		t.Fatalf("explicit values overwritten: %+v", d)
	}
}

func TestFilterTarget(t *testing.T) {
	t.Parallel()

	off := false
	tests := []struct {
		target  string
		enabled *bool
		want    string
	}{
		{"", nil, TargetClean},
		{TargetAuto, nil, TargetClean},
		{TargetAuto, &off, TargetRaw},
		{TargetRaw, nil, TargetRaw},
		{TargetClean, &off, TargetClean},
	}
	for _, tt := range tests {
		p := Pipeline{Clean: Clean{Enabled: tt.enabled}, Filter: Filter{Target: tt.target}}
		if got := p.FilterTarget(); got != tt.want {
			t.Fatalf("target=%q enabled=%v: got %q want %q", tt.target, tt.enabled, got, tt.want)
		}
	}
}

/*
TestShippedPipelines loads every file under configs/pipelines and checks it
decodes and validates without errors.
*/
func TestShippedPipelines(t *testing.T) {
	var paths []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		m, err := filepath.Glob(filepath.Join("..", "..", "configs", "pipelines", pattern))
		if err != nil {
			t.Fatalf("glob: %v", err)
		}
		paths = append(paths, m...)
	}
	if len(paths) == 0 {
		t.Fatal("no pipeline files found")
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			p, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if issues := ValidatePipeline(p); HasErrors(issues) {
				t.Fatalf("unexpected errors: %v", issues)
			}
		})
	}
}

func TestSampleJSONMatchesYAML(t *testing.T) {
	dir := filepath.Join("..", "..", "configs", "pipelines")
	j, err := Load(filepath.Join(dir, "sample.json"))
	if err != nil {
		t.Fatalf("Load json: %v", err)
	}
	y, err := Load(filepath.Join(dir, "sample.yaml"))
	if err != nil {
		t.Fatalf("Load yaml: %v", err)
	}
	if diff := cmp.Diff(j, y); diff != "" {
		t.Fatalf("sample.json and sample.yaml differ (-json +yaml):\n%s", diff)
	}
}
