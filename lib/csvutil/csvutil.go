package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Decode reads delimited text with a known, fixed column order and
// returns one key/value row per record. Values stay raw strings,
// coercion is the caller's job.
func Decode(content string, fields []string, delimiter rune, skipHeader bool) ([]map[string]string, error) {
	if skipHeader {
		_, rest, found := strings.Cut(content, "\n")
		if !found {
			return nil, fmt.Errorf("expected a header line to skip but content has no line separator")
		}
		content = rest
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		row := make(map[string]string, len(fields))
		for i, name := range fields {
			if i < len(record) {
				row[name] = record[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}
