package root

import (
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	recs := []named{
		{id: "c1", name: "Fitness"},
		{id: "c2", name: "Finance"},
		{id: "c3", name: "Reading"},
	}

	cases := []struct {
		ref  string
		want string
	}{
		{"c3", "c3"},
		{"finance", "c2"},
		{"rdng", "c3"},
		{"fitn", "c1"},
	}
	for _, tc := range cases {
		got, err := resolve("category", tc.ref, recs)
		if err != nil {
			t.Fatalf("resolve(%q): %v", tc.ref, err)
		}
		if got != tc.want {
			t.Fatalf("resolve(%q)=%q, want %q", tc.ref, got, tc.want)
		}
	}

	if _, err := resolve("category", "zzz", recs); err == nil || !strings.Contains(err.Error(), "no category") {
		t.Fatalf("expected no-match error, got %v", err)
	}
	if _, err := resolve("category", " ", recs); err == nil {
		t.Fatalf("expected error for empty ref")
	}
}

func TestParseWeekdays(t *testing.T) {
	got, err := parseWeekdays("mon, wed,sun")
	if err != nil {
		t.Fatalf("parseWeekdays: %v", err)
	}
	want := []int{1, 3, 0}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if _, err := parseWeekdays("funday"); err == nil {
		t.Fatalf("expected error for unknown weekday")
	}
}
