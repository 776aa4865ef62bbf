package cargo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupTables(t *testing.T) {
	assert.Len(t, Categories, 9)
	assert.Len(t, Statuses, 5)
	assert.Len(t, WeightBuckets, 8)

	for _, c := range Categories {
		assert.Truef(t, c.Valid(), "category %q", c)
	}
	for _, s := range Statuses {
		assert.Truef(t, s.Valid(), "status %q", s)
	}
	assert.False(t, Category("Food").Valid())
	assert.False(t, Status("delivered").Valid())
	assert.False(t, Status("").Valid())
}

func TestWeightBucketsAreContiguous(t *testing.T) {
	prev := 1.0
	for _, label := range WeightBuckets {
		b, err := ParseBucket(label)
		require.NoError(t, err, label)
		assert.Equal(t, prev, b.Min, label)
		prev = b.Max
	}
	assert.Equal(t, 40.0, prev)
}

func TestParseBucket(t *testing.T) {
	tests := []struct {
		label   string
		want    Bucket
		wantErr bool
	}{
		{label: "5-10", want: Bucket{5, 10}},
		{label: " 1 - 5 ", want: Bucket{1, 5}},
		{label: "0.5-2.5", want: Bucket{0.5, 2.5}},
		{label: "10", wantErr: true},
		{label: "-5", wantErr: true},
		{label: "10-5", wantErr: true},
		{label: "5-5", wantErr: true},
		{label: "a-b", wantErr: true},
		{label: "1-Inf", wantErr: true},
		{label: "NaN-3", wantErr: true},
		{label: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseBucket(tt.label)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBucketContainsIsHalfOpen(t *testing.T) {
	b := Bucket{Min: 5, Max: 10}
	assert.True(t, b.Contains(5))
	assert.True(t, b.Contains(9.999))
	assert.False(t, b.Contains(10))
	assert.False(t, b.Contains(4.999))
	assert.False(t, b.Contains(math.NaN()))
	assert.Equal(t, "5-10", b.String())
}

func TestParseNumStrict(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "NaN", "Inf", "-Inf", "1e999"} {
		_, err := ParseNumStrict(in)
		assert.ErrorIsf(t, err, ErrBadNumber, "input %q", in)
	}
	f, err := ParseNumStrict(" -12.5 ")
	require.NoError(t, err)
	assert.Equal(t, -12.5, f)
}

func TestIsUUIDv4(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"3f2b8c1e-9d4a-4b7e-8c2d-1a2b3c4d5e6f", true},
		{"3F2B8C1E-9D4A-4B7E-AC2D-1A2B3C4D5E6F", true},
		{"3f2b8c1e-9d4a-1b7e-8c2d-1a2b3c4d5e6f", false}, // version 1
		{"3f2b8c1e-9d4a-4b7e-cc2d-1a2b3c4d5e6f", false}, // wrong variant
		{"3f2b8c1e9d4a4b7e8c2d1a2b3c4d5e6f", false},
		{"{3f2b8c1e-9d4a-4b7e-8c2d-1a2b3c4d5e6f}", false},
		{"urn:uuid:3f2b8c1e-9d4a-4b7e-8c2d-1a2b3c4d5e6f", false},
		{"3f2b8c1e-9d4a-4b7e-8c2d-1a2b3c4d5e6g", false},
		{"", false},
		{"not-a-uuid", false},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, IsUUIDv4(tt.in), "IsUUIDv4(%q)", tt.in)
	}
}

func TestIsDirty(t *testing.T) {
	good := RawCargo{
		ID:       "3f2b8c1e-9d4a-4b7e-8c2d-1a2b3c4d5e6f",
		Name:     "AbCdEfGh",
		Category: CategoryFood,
		Price:    10,
		Status:   StatusPtr(StatusDelivered),
		Kg:       KgPtr(7),
	}
	require.False(t, good.IsDirty())

	tests := map[string]func(r *RawCargo){
		"nil status":     func(r *RawCargo) { r.Status = nil },
		"unknown status": func(r *RawCargo) { r.Status = StatusPtr("LOST") },
		"unknown cat":    func(r *RawCargo) { r.Category = "garden" },
		"negative price": func(r *RawCargo) { r.Price = -0.01 },
		"NaN price":      func(r *RawCargo) { r.Price = math.NaN() },
		"inf price":      func(r *RawCargo) { r.Price = math.Inf(1) },
		"nil kg":         func(r *RawCargo) { r.Kg = nil },
		"inf kg":         func(r *RawCargo) { r.Kg = KgPtr(math.Inf(-1)) },
		"malformed id":   func(r *RawCargo) { r.ID = "row-1" },
	}
	rows := []RawCargo{good}
	for name, mutate := range tests {
		r := good
		mutate(&r)
		assert.Truef(t, r.IsDirty(), "%s should be dirty", name)
		rows = append(rows, r)
	}
	assert.Equal(t, len(tests), CountDirty(rows))
}

func TestViews(t *testing.T) {
	raw := RawCargo{Name: "n", Category: CategoryToys, Price: 3}
	v := raw.View()
	assert.False(t, v.HasKg)

	raw.Kg = KgPtr(12)
	v = raw.View()
	assert.True(t, v.HasKg)
	assert.Equal(t, 12.0, v.Kg)

	clean := CleanCargo{Name: "n", Category: CategoryToys, Price: 3, Kg: 0}
	assert.Equal(t, View{Category: CategoryToys, Price: 3, Name: "n", Kg: 0, HasKg: true}, clean.View())
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]string{"a", "bc"})
	assert.Equal(t, a, Fingerprint([]string{"a", "bc"}))
	assert.NotEqual(t, a, Fingerprint([]string{"ab", "c"}))
	assert.NotEqual(t, a, Fingerprint([]string{"bc", "a"}))
}
