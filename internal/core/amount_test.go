package core

import "testing"

func TestCleanAmount(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{name: "thousands separator", raw: "1,234.50", want: 1234.5},
		{name: "plain integer", raw: "500", want: 500},
		{name: "negative", raw: "-42.75", want: -42.75},
		{name: "currency prefix", raw: "₹ 1,000", want: 1000},
		{name: "surrounding whitespace", raw: "  12.30  ", want: 12.3},
		{name: "empty", raw: "", want: 0},
		{name: "not a number", raw: "n/a", want: 0},
		{name: "only separators", raw: ",,", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanAmount(tt.raw)
			if got != tt.want {
				t.Errorf("CleanAmount(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestTypeForAmount(t *testing.T) {
	if got := TypeForAmount(100); got != Income {
		t.Errorf("TypeForAmount(100) = %v, want income", got)
	}
	if got := TypeForAmount(-100); got != Expense {
		t.Errorf("TypeForAmount(-100) = %v, want expense", got)
	}
	if got := TypeForAmount(0); got != Expense {
		t.Errorf("TypeForAmount(0) = %v, want expense", got)
	}
}
