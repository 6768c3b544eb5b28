package format

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// CSV encodes a sequence of mappings as comma-separated rows, every
// cell quoted, with a header row first. Columns selects and orders the
// columns, defaulting to the sorted keys of the first row; Path digs
// the sequence out of a larger structure by dotted key first. Decoding
// is not supported.
type CSV struct {
	Columns []string
	Path    string
}

func (CSV) Name() string {
	return "csv"
}

func (CSV) Mimetype() string {
	return "application/csv"
}

func (CSV) Extensions() []string {
	return []string{".csv"}
}

func (f CSV) Serialize(value any) (string, error) {
	if f.Path != "" {
		var err error
		if value, err = traverseToKey(value, f.Path); err != nil {
			return "", err
		}
	}

	rows, err := csvRows(value)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}

	columns := f.Columns
	if len(columns) == 0 {
		columns = make([]string, 0, len(rows[0]))
		for column := range rows[0] {
			columns = append(columns, column)
		}
		sort.Strings(columns)
	}

	var content strings.Builder
	writeCSVRow(&content, columns, func(column string) any { return column })
	for _, row := range rows {
		writeCSVRow(&content, columns, func(column string) any { return row[column] })
	}
	return content.String(), nil
}

func (CSV) Unserialize(text string) (any, error) {
	return nil, errors.New("format: csv does not support unserialization")
}

func csvRows(value any) ([]map[string]any, error) {
	switch rows := value.(type) {
	case []map[string]any:
		return rows, nil
	case []any:
		converted := make([]map[string]any, len(rows))
		for i, row := range rows {
			mapping, ok := row.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("format: csv rows must be mappings, not %T", row)
			}
			converted[i] = mapping
		}
		return converted, nil
	}
	return nil, fmt.Errorf("format: csv requires a sequence of mappings, not %T", value)
}

func writeCSVRow(content *strings.Builder, columns []string, cell func(column string) any) {
	for i, column := range columns {
		if i > 0 {
			content.WriteByte(',')
		}
		content.WriteByte('"')
		content.WriteString(strings.ReplaceAll(csvCell(cell(column)), `"`, `""`))
		content.WriteByte('"')
	}
	content.WriteString("\r\n")
}

func csvCell(value any) string {
	if value == nil {
		return ""
	}
	return scalarText(value)
}

// traverseToKey resolves a dotted path of keys into nested mappings.
func traverseToKey(value any, path string) (any, error) {
	for _, key := range strings.Split(path, ".") {
		mapping, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("format: cannot traverse %q into %T value", path, value)
		}
		if value, ok = mapping[key]; !ok {
			return nil, fmt.Errorf("format: path %q not present", path)
		}
	}
	return value, nil
}
