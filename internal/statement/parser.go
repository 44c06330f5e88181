// Package statement turns bank-exported statement files into draft
// transactions. Delimited text and spreadsheet inputs converge on the same
// row mapping, so behavior is format-independent beyond the raw read step.
package statement

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"budgeteer/internal/core"
	applog "budgeteer/internal/log"
)

// ErrUnsupportedFormat is returned before any parsing attempt when the file
// extension is neither delimited text nor a spreadsheet.
var ErrUnsupportedFormat = errors.New("unsupported statement format, use CSV or Excel")

type Parser struct {
	logger *applog.Logger
	now    func() time.Time
}

func New(logger *applog.Logger) *Parser {
	return &Parser{
		logger: logger.WithComponent("statement"),
		now:    time.Now,
	}
}

// Parse reads a statement file and returns one draft transaction per data
// row. Each draft gets a synthetic ID unique within this batch.
func (p *Parser) Parse(data []byte, filename string) ([]core.DraftTransaction, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	p.logger.Debug("parsing statement", "filename", filename, "extension", ext, "bytes", len(data))

	var (
		headers []string
		records [][]string
		err     error
	)
	switch ext {
	case ".csv":
		headers, records, err = readCSV(data)
	case ".xlsx":
		headers, records, err = readXLSX(data)
	case ".xls":
		headers, records, err = readXLS(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", strings.TrimPrefix(ext, "."), err)
	}

	now := p.now()
	drafts := make([]core.DraftTransaction, 0, len(records))
	for i, cells := range records {
		if emptyRecord(cells) {
			continue
		}
		drafts = append(drafts, normalizeRow(NewRow(headers, cells), i, now))
	}

	p.logger.Info("statement parsed", "filename", filename, "rows", len(records), "drafts", len(drafts))
	return drafts, nil
}

func emptyRecord(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
