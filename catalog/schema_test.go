package catalog

import (
	"testing"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
)

func TestSchema_NormalizeProfile(t *testing.T) {
	s := DefaultSchema()

	tests := []struct {
		name    string
		profile core.Profile
		want    core.Profile
	}{
		{
			name: "canonical names kept",
			profile: core.Profile{
				ColTargetBusinessType: "Tech Startup",
				ColPriceCategory:      " High ",
			},
			want: core.Profile{
				ColTargetBusinessType: "Tech Startup",
				ColPriceCategory:      "High",
			},
		},
		{
			name: "aliases resolved",
			profile: core.Profile{
				"business_type":  "Tech Startup",
				"price_category": "High",
				"language":       "Both",
				"location":       "Delhi",
			},
			want: core.Profile{
				ColTargetBusinessType: "Tech Startup",
				ColPriceCategory:      "High",
				ColLanguageSupport:    "Both",
				ColLocationArea:       "Delhi",
			},
		},
		{
			name: "canonical wins over alias",
			profile: core.Profile{
				"location":      "Delhi",
				ColLocationArea: "Remote",
			},
			want: core.Profile{ColLocationArea: "Remote"},
		},
		{
			name: "unknown keys and blank values dropped",
			profile: core.Profile{
				"budget":           "100",
				ColLanguageSupport: "  ",
				ColServiceName:     "SEO",
			},
			want: core.Profile{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.NormalizeProfile(tt.profile)
			if len(got) != len(tt.want) {
				t.Fatalf("NormalizeProfile() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("NormalizeProfile()[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestSchema_Validate(t *testing.T) {
	if err := DefaultSchema().Validate(); err != nil {
		t.Fatalf("DefaultSchema().Validate() error = %v", err)
	}
	if err := (Schema{}).Validate(); !core.IsEmptyInput(err) {
		t.Errorf("empty schema error = %v, want EMPTY_INPUT", err)
	}
	bad := Schema{Features: []string{ColDescription}}
	if err := bad.Validate(); !core.IsInvalidInput(err) {
		t.Errorf("free-text feature error = %v, want INVALID_INPUT", err)
	}
	dup := Schema{Features: []string{ColPriceCategory, ColPriceCategory}}
	if err := dup.Validate(); !core.IsInvalidInput(err) {
		t.Errorf("duplicate feature error = %v, want INVALID_INPUT", err)
	}
}
