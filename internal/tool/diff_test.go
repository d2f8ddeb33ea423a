package tool

import (
	"strings"
	"testing"
)

func TestBuildDiffMetadata_NoChange(t *testing.T) {
	diff, adds, dels := buildDiffMetadata("/tmp/f.txt", "same\n", "same\n", "/tmp")
	if diff != "" || adds != 0 || dels != 0 {
		t.Errorf("Identical content should yield an empty diff, got %q (%d/%d)", diff, adds, dels)
	}
}

func TestBuildDiffMetadata_Counts(t *testing.T) {
	before := "one\ntwo\nthree\n"
	after := "one\n2\nthree\nfour\n"

	diff, adds, dels := buildDiffMetadata("/tmp/f.txt", before, after, "/tmp")
	if diff == "" {
		t.Fatal("Expected a non-empty diff")
	}
	if adds != 2 {
		t.Errorf("Expected 2 additions, got %d", adds)
	}
	if dels != 1 {
		t.Errorf("Expected 1 deletion, got %d", dels)
	}
}

func TestBuildDiffMetadata_Headers(t *testing.T) {
	diff, _, _ := buildDiffMetadata("/home/user/project/main.go", "a\n", "b\n", "/home/user/project")
	if !strings.Contains(diff, "--- main.go") || !strings.Contains(diff, "+++ main.go") {
		t.Errorf("Diff should carry work-dir-relative headers, got %q", diff)
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"one", 1},
		{"one\n", 1},
		{"one\ntwo", 2},
		{"one\ntwo\n", 2},
	}
	for _, tt := range tests {
		if got := countLines(tt.text); got != tt.want {
			t.Errorf("countLines(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
