package utils

import "testing"

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{
			name:   "returns empty when limit non-positive",
			input:  "hello world",
			limit:  0,
			expect: "",
		},
		{
			name:   "shorter than limit",
			input:  "hello",
			limit:  10,
			expect: "hello",
		},
		{
			name:   "truncates and adds ellipsis",
			input:  "hello world",
			limit:  5,
			expect: "hello...",
		},
		{
			name:   "trims surrounding whitespace",
			input:  "  spaced  ",
			limit:  5,
			expect: "space...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestWordCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		expect int
	}{
		{"", 0},
		{"   ", 0},
		{"=SUM(A1:A10)", 1},
		{"use  SUM\tover the\nrange", 5},
	}

	for _, tt := range tests {
		if got := WordCount(tt.input); got != tt.expect {
			t.Fatalf("WordCount(%q) = %d, want %d", tt.input, got, tt.expect)
		}
	}
}
