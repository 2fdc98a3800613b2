package validation

import (
	"testing"
	"time"
)

func TestRequired(t *testing.T) {
	v := make(Violations)
	Required("name", "   ", v)
	Required("email", "a@b.c", v)
	if v["name"] != "required" {
		t.Fatalf("expected required for blank name, got %q", v["name"])
	}
	if _, ok := v["email"]; ok {
		t.Fatalf("unexpected violation for email")
	}
}

func TestNumericValidators(t *testing.T) {
	tests := []struct {
		name  string
		check func(Violations)
		want  string
	}{
		{"positive int zero", func(v Violations) { PositiveInt("q", 0, v) }, "must_be_positive"},
		{"positive int ok", func(v Violations) { PositiveInt("q", 3, v) }, ""},
		{"positive float negative", func(v Violations) { PositiveFloat("q", -1, v) }, "must_be_positive"},
		{"non negative zero", func(v Violations) { NonNegativeFloat("q", 0, v) }, ""},
		{"non negative below", func(v Violations) { NonNegativeFloat("q", -0.01, v) }, "must_be_non_negative"},
		{"range out", func(v Violations) { RangeFloat("q", 2, 0, 1, v) }, "out_of_range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := make(Violations)
			tt.check(v)
			if got := v["q"]; got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEmailOneOfDate(t *testing.T) {
	v := make(Violations)
	Email("email", "not-an-email", v)
	Email("empty", "", v)
	OneOf("status", "archived", []string{"active", "draft"}, v)
	Date("due_date", "2024-13-01", v)
	Date("issue_date", "2024-01-15", v)
	MinLength("name", "a", 2, v)

	want := Violations{
		"email":    "invalid_email",
		"status":   "invalid_choice",
		"due_date": "invalid_date",
		"name":     "too_short",
	}
	if len(v) != len(want) {
		t.Fatalf("got %v, want %v", v, want)
	}
	for k, c := range want {
		if v[k] != c {
			t.Errorf("%s: got %q, want %q", k, v[k], c)
		}
	}
}

func TestNotBeforeAndMerge(t *testing.T) {
	start := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	v := make(Violations)
	NotBefore("end_date", start, start.Add(-time.Hour), v)
	NotBefore("other", time.Time{}, start, v)
	if v["end_date"] != "before_start" {
		t.Fatalf("expected before_start, got %v", v)
	}

	v.Merge(Violations{"end_date": "ignored", "title": "required"})
	if v["end_date"] != "before_start" || v["title"] != "required" {
		t.Fatalf("unexpected merge result %v", v)
	}
	if v.Empty() {
		t.Fatal("expected non-empty")
	}
}
