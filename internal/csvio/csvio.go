// Package csvio serializes the three persisted collections to and from the
// CSV dialect the spreadsheet exports use. Parsing is two-staged: a generic
// header-keyed pass with opportunistic value coercion, then a schema-validated
// decode into the concrete entity types that rejects records missing required
// fields.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrEmpty is returned when the input contains no header row.
var ErrEmpty = errors.New("csvio: empty input")

// Record is one parsed CSV row keyed by header. Values are float64, bool or
// string depending on what the cell looked like.
type Record map[string]any

// Marshal writes a header row followed by one row per record. Fields carrying
// commas or quotes come out quoted with doubled internal quotes.
func Marshal(headers []string, rows [][]string) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(headers); err != nil {
		return "", err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Parse reads a quoted-CSV stream into header-keyed records. Numeric-looking
// cells become float64, "true"/"false" (any case) become bool, everything
// else stays string. Rows shorter than the header keep the missing columns
// absent.
func Parse(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}

	header := rows[0]
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		record := make(Record, len(header))
		for idx, key := range header {
			if idx >= len(row) {
				continue
			}
			record[strings.TrimSpace(key)] = coerce(strings.TrimSpace(row[idx]))
		}
		records = append(records, record)
	}
	return records, nil
}

func coerce(value string) any {
	if value == "" {
		return ""
	}
	if parsed, err := strconv.ParseFloat(value, 64); err == nil {
		return parsed
	}
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	return value
}

func stringField(record Record, key string) string {
	switch v := record[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func floatField(record Record, key string) float64 {
	switch v := record[key].(type) {
	case float64:
		return v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func boolField(record Record, key string) bool {
	switch v := record[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	case float64:
		return v != 0
	default:
		return false
	}
}

func idField(record Record) uint {
	id := floatField(record, "id")
	if id <= 0 {
		return 0
	}
	return uint(id)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
