package statement

import (
	"fmt"
	"strings"
	"time"

	"budgeteer/internal/core"
)

// UnknownNote is the placeholder description for rows with no matching
// description-like column. A row is never dropped for a missing note.
const UnknownNote = "Unknown Transaction"

// dateLayouts covers the formats seen across bank exports. Tried in order;
// day-first layouts come before month-first since most source statements use
// them.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"02/01/06",
	"01/02/2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"2006-01-02 15:04:05",
}

func normalizeLabel(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func cleanCell(raw string) float64 {
	return core.CleanAmount(raw)
}

// normalizeRow maps one statement row into a draft transaction. Missing or
// unparseable dates fall back to the ingestion timestamp and a missing note
// falls back to UnknownNote, so normalization itself never rejects a row.
func normalizeRow(row Row, index int, now time.Time) core.DraftTransaction {
	date := now
	if raw, ok := row.findString(dateRules); ok {
		if parsed, err := parseDate(strings.TrimSpace(raw)); err == nil {
			date = parsed
		}
	}

	note := UnknownNote
	if raw, ok := row.findString(noteRules); ok {
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			note = trimmed
		}
	}

	return core.DraftTransaction{
		ID:          draftID(index, now),
		Date:        date.Format(time.RFC3339),
		Note:        note,
		Amount:      resolveAmount(row),
		OriginalRow: row.Original,
	}
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

// draftID is unique within one import batch and never persisted; it only
// correlates rows through classification and review.
func draftID(index int, now time.Time) string {
	return fmt.Sprintf("tx_%d_%d", index, now.UnixMilli())
}
