package statement

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// readCSV parses comma-separated content with the first record as the header
// row. Records may have a variable number of fields; short rows are padded by
// the row mapping, never rejected.
func readCSV(data []byte) (headers []string, records [][]string, err error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("csv is empty")
	}
	return all[0], all[1:], nil
}
