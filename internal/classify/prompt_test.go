package classify

import (
	"strings"
	"testing"

	"budgeteer/internal/core"
)

func TestBuildPrompt(t *testing.T) {
	drafts := []core.DraftTransaction{
		{ID: "tx_0_1", Note: "SWIGGY BANGALORE", Amount: -450},
		{ID: "tx_1_1", Note: "UBER TRIP", Amount: -220.5},
	}
	buckets := []core.Bucket{
		{Name: "Food"},
		{Name: "Transport"},
	}

	prompt := buildPrompt(drafts, buckets)

	for _, want := range []string{
		"Available Buckets: Food, Transport",
		"ID: tx_0_1 | Desc: SWIGGY BANGALORE | Amount: -450",
		"ID: tx_1_1 | Desc: UBER TRIP | Amount: -220.5",
		"JSON object",
		core.UncategorizedBucket,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q\n%s", want, prompt)
		}
	}
}

func TestBuildPromptNoBuckets(t *testing.T) {
	prompt := buildPrompt([]core.DraftTransaction{{ID: "tx_0_1", Note: "X", Amount: -1}}, nil)
	if !strings.Contains(prompt, "Available Buckets: (none yet)") {
		t.Errorf("prompt should flag an empty bucket list\n%s", prompt)
	}
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "bare object",
			raw:  `{"tx_0_1":"Food"}`,
			want: `{"tx_0_1":"Food"}`,
		},
		{
			name: "json fence",
			raw:  "```json\n{\"tx_0_1\":\"Food\"}\n```",
			want: `{"tx_0_1":"Food"}`,
		},
		{
			name: "plain fence",
			raw:  "```\n{\"tx_0_1\":\"Food\"}\n```",
			want: `{"tx_0_1":"Food"}`,
		},
		{
			name: "surrounding prose",
			raw:  "Here is the mapping:\n{\"tx_0_1\":\"Food\"}\nHope this helps!",
			want: `{"tx_0_1":"Food"}`,
		},
		{
			name: "leading and trailing whitespace",
			raw:  "  \n{\"tx_0_1\":\"Food\"}\n  ",
			want: `{"tx_0_1":"Food"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseMapping(t *testing.T) {
	mapping, err := parseMapping("```json\n{\"tx_0_1\":\"Food\",\"tx_1_1\":\"Transport\"}\n```")
	if err != nil {
		t.Fatalf("parseMapping: %v", err)
	}
	if mapping["tx_0_1"] != "Food" || mapping["tx_1_1"] != "Transport" {
		t.Errorf("mapping = %v", mapping)
	}

	if _, err := parseMapping("not json at all"); err == nil {
		t.Error("expected error for non-JSON response")
	}
}
