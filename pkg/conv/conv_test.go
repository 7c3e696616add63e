package conv

import (
	"reflect"
	"testing"
)

func TestConfigGet(t *testing.T) {
	m := map[string]any{"expr": "score > 0", "n": 5, "f": 2.0, "s": "7"}

	if got := ConfigGet[string](m, "expr", ""); got != "score > 0" {
		t.Errorf("ConfigGet(expr) = %q", got)
	}
	if got := ConfigGet[string](m, "n", "default"); got != "default" {
		t.Errorf("ConfigGet with wrong type = %q, want default", got)
	}
	if got := ConfigGet[string](nil, "expr", "d"); got != "d" {
		t.Errorf("ConfigGet(nil) = %q", got)
	}
	for key, want := range map[string]int64{"n": 5, "f": 2, "s": 7, "missing": -1} {
		if got := ConfigGetInt64(m, key, -1); got != want {
			t.Errorf("ConfigGetInt64(%s) = %d, want %d", key, got, want)
		}
	}
}

func TestSliceAnyToInt64(t *testing.T) {
	tests := []struct {
		in   any
		want []int64
	}{
		{[]any{1, int64(2), 3.0, "4", "x"}, []int64{1, 2, 3, 4}},
		{[]int64{9}, []int64{9}},
		{"nope", nil},
		{nil, nil},
	}
	for _, tt := range tests {
		if got := SliceAnyToInt64(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SliceAnyToInt64(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
