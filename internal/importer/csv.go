package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docfill/internal/doctree"
)

// ParseFieldValues reads fieldId,fieldValue rows. A header row naming those
// columns is optional. Rows with an empty id are skipped.
func ParseFieldValues(r io.Reader) ([]doctree.FieldValue, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var out []doctree.FieldValue
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("parse csv: line %d: expected fieldId,fieldValue", line)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "fieldId") {
			continue
		}
		id := strings.TrimSpace(row[0])
		if id == "" {
			continue
		}
		out = append(out, doctree.FieldValue{FieldID: id, FieldValue: row[1]})
	}
	if len(out) == 0 {
		return nil, ErrNoContent
	}
	return out, nil
}
