package attendance_test

import (
	"encoding/json"
	"testing"

	"MessAPI/internal/attendance"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want attendance.Decision
	}{
		{"nil", nil, attendance.NoResponse},
		{"true", true, attendance.Yes},
		{"false", false, attendance.No},
		{"attending true", map[string]any{"attending": true}, attendance.Yes},
		{"isAttending false", map[string]any{"isAttending": false}, attendance.No},
		{"present", map[string]any{"present": true}, attendance.Yes},
		{"isPresent", map[string]any{"isPresent": true}, attendance.Yes},
		{"case variant", map[string]any{"Attending": true}, attendance.Yes},
		{"upper case variant", map[string]any{"ISPRESENT": false}, attendance.No},
		{"first field wins", map[string]any{"attending": false, "present": true}, attendance.No},
		{"non-bool flag skipped", map[string]any{"attending": "yes", "present": true}, attendance.Yes},
		{"object without flag", map[string]any{"name": "Asha"}, attendance.NoResponse},
		{"empty object", map[string]any{}, attendance.NoResponse},
		{"array", []any{true}, attendance.NoResponse},
		{"number", float64(1), attendance.NoResponse},
		{"string", "yes", attendance.NoResponse},
		{"zero", float64(0), attendance.NoResponse},
	}
	for _, tt := range tests {
		if got := attendance.Normalize(tt.raw); got != tt.want {
			t.Errorf("%s: Normalize(%v) = %q, want %q", tt.name, tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeLegacy(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want attendance.Decision
	}{
		{"nil", nil, attendance.NoResponse},
		{"true", true, attendance.Yes},
		{"false", false, attendance.No},
		{"flagged false", map[string]any{"attending": false}, attendance.No},
		{"object without flag", map[string]any{"note": "late"}, attendance.NoResponse},
		{"truthy number", float64(1), attendance.Yes},
		{"truthy string", "yes", attendance.Yes},
		{"timestamp", float64(1707120000000), attendance.Yes},
		{"json number", json.Number("3"), attendance.Yes},
		{"zero", float64(0), attendance.NoResponse},
		{"empty string", "", attendance.NoResponse},
	}
	for _, tt := range tests {
		if got := attendance.NormalizeLegacy(tt.raw); got != tt.want {
			t.Errorf("%s: NormalizeLegacy(%v) = %q, want %q", tt.name, tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeIsIdempotentOverDecodedJSON(t *testing.T) {
	inputs := []string{`null`, `true`, `{"present":true}`, `[1,2]`, `"x"`, `42`, `{"a":{"attending":true}}`}
	for _, in := range inputs {
		var raw any
		if err := json.Unmarshal([]byte(in), &raw); err != nil {
			t.Fatal(err)
		}
		first := attendance.Normalize(raw)
		if second := attendance.Normalize(raw); first != second {
			t.Errorf("Normalize(%s) not stable: %q then %q", in, first, second)
		}
		switch first {
		case attendance.Yes, attendance.No, attendance.NoResponse:
		default:
			t.Errorf("Normalize(%s) = %q, outside the decision set", in, first)
		}
	}
}

func TestCountYes(t *testing.T) {
	node := map[string]any{
		"u1": true,
		"u2": map[string]any{"attending": false},
		"u3": map[string]any{"present": true},
	}
	if got := attendance.CountYes(node); got != 2 {
		t.Errorf("CountYes = %d, want 2", got)
	}
	if got := attendance.CountYes(map[string]any{"u1": float64(1), "u2": nil}); got != 1 {
		t.Errorf("CountYes(legacy) = %d, want 1", got)
	}
	if got := attendance.CountYes(true); got != 0 {
		t.Errorf("CountYes(non-object) = %d, want 0", got)
	}
}
