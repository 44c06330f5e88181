package statement

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
)

// Legacy .xls sheets are read bounded; statements beyond this are not a
// realistic household export.
const maxXLSRows = 10000

// readXLS reads the first sheet of a legacy BIFF workbook.
func readXLS(data []byte) (headers []string, records [][]string, err error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}

	rows := workbook.ReadAllCells(maxXLSRows)
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("workbook has no rows")
	}
	return rows[0], rows[1:], nil
}
