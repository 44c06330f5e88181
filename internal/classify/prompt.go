package classify

import (
	"fmt"
	"strings"

	"budgeteer/internal/core"
)

// buildPrompt renders the classification request. The contract with the
// model is a bare JSON object mapping draft ID to bucket name.
func buildPrompt(drafts []core.DraftTransaction, buckets []core.Bucket) string {
	var b strings.Builder

	b.WriteString("You are a personal finance assistant. Categorize these bank transactions into budget buckets.\n\n")

	b.WriteString("Available Buckets: ")
	if len(buckets) == 0 {
		b.WriteString("(none yet)")
	} else {
		names := make([]string, len(buckets))
		for i, bucket := range buckets {
			names[i] = bucket.Name
		}
		b.WriteString(strings.Join(names, ", "))
	}
	b.WriteString("\n\nTransactions:\n")

	for _, d := range drafts {
		fmt.Fprintf(&b, "ID: %s | Desc: %s | Amount: %v\n", d.ID, d.Note, d.Amount)
	}

	b.WriteString("\nRules:\n")
	b.WriteString("1. Match each transaction to the most fitting available bucket.\n")
	b.WriteString("2. If no available bucket fits, suggest a new short bucket name (e.g. \"Groceries\", \"Transport\").\n")
	b.WriteString("3. Avoid \"" + core.UncategorizedBucket + "\" unless nothing else makes sense.\n")
	b.WriteString("4. Respond with ONLY a JSON object mapping transaction ID to bucket name.\n")
	b.WriteString("Do NOT use ```json or any Markdown. Output must begin with \"{\" and end with \"}\".\n")

	return b.String()
}

// cleanModelJSON strips Markdown fences and surrounding prose that the
// model sometimes emits despite instructions, keeping the outermost
// JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start != -1 && end != -1 && end > start {
		s = s[start : end+1]
	}
	return s
}
