package statement

import "regexp"

// Bank exports carry no fixed schema, so semantic fields are located by an
// ordered rule table: for each field the patterns are tried in priority order
// against the normalized (trimmed, lowercased) column labels, and the first
// matching column wins. Earlier patterns are more specific on purpose: the
// strict amount patterns must not match "withdrawal amount".
var (
	dateRules = []*regexp.Regexp{
		regexp.MustCompile(`date`),
		regexp.MustCompile(`val.*dt`),
		regexp.MustCompile(`txn.*dt`),
	}

	noteRules = []*regexp.Regexp{
		regexp.MustCompile(`narration`),
		regexp.MustCompile(`desc`),
		regexp.MustCompile(`particulars`),
		regexp.MustCompile(`memo`),
		regexp.MustCompile(`remarks`),
	}

	amountRules = []*regexp.Regexp{
		regexp.MustCompile(`^amount$`),
		regexp.MustCompile(`^amt$`),
		regexp.MustCompile(`^transaction amount$`),
	}

	withdrawalRules = []*regexp.Regexp{
		regexp.MustCompile(`withdrawal`),
		regexp.MustCompile(`debit`),
		regexp.MustCompile(`^dr$`),
		regexp.MustCompile(`dr.*amount`),
	}

	depositRules = []*regexp.Regexp{
		regexp.MustCompile(`deposit`),
		regexp.MustCompile(`credit`),
		regexp.MustCompile(`^cr$`),
		regexp.MustCompile(`cr.*amount`),
	}
)

// Row is a single statement row. Labels hold the normalized column names in
// file order so lookups stay deterministic; Original keeps the verbatim
// header/value pairs for traceability.
type Row struct {
	labels   []string
	values   map[string]string
	Original map[string]string
}

// NewRow builds a Row from a header line and the matching cells. Headers are
// normalized for matching; missing trailing cells read as empty.
func NewRow(headers, cells []string) Row {
	r := Row{
		labels:   make([]string, 0, len(headers)),
		values:   make(map[string]string, len(headers)),
		Original: make(map[string]string, len(headers)),
	}
	for i, h := range headers {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		label := normalizeLabel(h)
		if label == "" {
			continue
		}
		r.labels = append(r.labels, label)
		r.values[label] = cell
		r.Original[h] = cell
	}
	return r
}

// findString returns the raw value of the first column matched by the rule
// list, pattern priority first, file order second.
func (r Row) findString(rules []*regexp.Regexp) (string, bool) {
	for _, rule := range rules {
		for _, label := range r.labels {
			if rule.MatchString(label) {
				return r.values[label], true
			}
		}
	}
	return "", false
}

// findNumeric is findString for amounts: cleaned values of zero are skipped so
// that an empty deposit cell does not shadow a populated withdrawal column.
func (r Row) findNumeric(rules []*regexp.Regexp) float64 {
	for _, rule := range rules {
		for _, label := range r.labels {
			if !rule.MatchString(label) {
				continue
			}
			if v := cleanCell(r.values[label]); v != 0 {
				return v
			}
		}
	}
	return 0
}
