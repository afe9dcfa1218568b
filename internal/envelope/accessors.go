package envelope

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
)

// Table is a column-ordered tabular view of envelope results. Standard
// schema columns come first, provider extras follow in the order they
// first appear in the data.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ToDF materializes the tabular view. Built once on first call; the
// envelope is never mutated beyond the memoized table.
func (e *Envelope) ToDF() *Table {
	e.tableOnce.Do(func() {
		e.table = e.buildTable()
	})
	return e.table
}

func (e *Envelope) buildTable() *Table {
	columns := make([]string, 0, len(e.columns))
	seen := make(map[string]struct{}, len(e.columns))
	for _, c := range e.columns {
		columns = append(columns, c)
		seen[c] = struct{}{}
	}

	// Extension fields beyond the standard schema, in first-encountered
	// order within each record, sorted per record for determinism.
	for _, rec := range e.Results {
		extras := make([]string, 0)
		for k := range rec {
			if _, ok := seen[k]; !ok {
				extras = append(extras, k)
			}
		}
		sort.Strings(extras)
		for _, k := range extras {
			columns = append(columns, k)
			seen[k] = struct{}{}
		}
	}

	rows := make([][]any, len(e.Results))
	for i, rec := range e.Results {
		row := make([]any, len(columns))
		for j, c := range columns {
			row[j] = rec[c]
		}
		rows[i] = row
	}
	return &Table{Columns: columns, Rows: rows}
}

// Recognized orientations for ToDict.
var dictOrients = map[string]struct{}{
	"records": {}, "list": {}, "dict": {}, "series": {},
	"split": {}, "tight": {}, "index": {},
}

// ToDict reshapes results according to the given orientation. An empty
// orient defaults to "list".
func (e *Envelope) ToDict(orient string) (any, error) {
	if orient == "" {
		orient = "list"
	}
	if _, ok := dictOrients[orient]; !ok {
		return nil, fmt.Errorf("unrecognized orient %q", orient)
	}

	t := e.ToDF()
	switch orient {
	case "records":
		out := make([]map[string]any, len(t.Rows))
		for i, row := range t.Rows {
			rec := make(map[string]any, len(t.Columns))
			for j, c := range t.Columns {
				rec[c] = row[j]
			}
			out[i] = rec
		}
		return out, nil

	case "list", "series":
		out := make(map[string][]any, len(t.Columns))
		for j, c := range t.Columns {
			col := make([]any, len(t.Rows))
			for i, row := range t.Rows {
				col[i] = row[j]
			}
			out[c] = col
		}
		return out, nil

	case "dict":
		out := make(map[string]map[int]any, len(t.Columns))
		for j, c := range t.Columns {
			col := make(map[int]any, len(t.Rows))
			for i, row := range t.Rows {
				col[i] = row[j]
			}
			out[c] = col
		}
		return out, nil

	case "split":
		return map[string]any{
			"columns": t.Columns,
			"data":    t.Rows,
		}, nil

	case "tight":
		index := make([]int, len(t.Rows))
		for i := range t.Rows {
			index[i] = i
		}
		return map[string]any{
			"index":   index,
			"columns": t.Columns,
			"data":    t.Rows,
		}, nil

	case "index":
		out := make(map[int]map[string]any, len(t.Rows))
		for i, row := range t.Rows {
			rec := make(map[string]any, len(t.Columns))
			for j, c := range t.Columns {
				rec[c] = row[j]
			}
			out[i] = rec
		}
		return out, nil
	}
	return nil, fmt.Errorf("unrecognized orient %q", orient)
}

// ToColumns returns the column-major view: one slice per column in table
// order.
func (e *Envelope) ToColumns() map[string][]any {
	t := e.ToDF()
	out := make(map[string][]any, len(t.Columns))
	for j, c := range t.Columns {
		col := make([]any, len(t.Rows))
		for i, row := range t.Rows {
			col[i] = row[j]
		}
		out[c] = col
	}
	return out
}

// ToCSV renders the table as CSV with a header row.
func (e *Envelope) ToCSV() (string, error) {
	t := e.ToDF()
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(t.Columns); err != nil {
		return "", err
	}
	for _, row := range t.Rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = stringify(v)
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return sb.String(), w.Error()
}

// ToLLM produces a compact, strings-only serialization suitable for prompt
// embedding. Secrets never reach the envelope, so no redaction pass is
// needed here beyond the argument copy the builder already made.
func (e *Envelope) ToLLM() string {
	t := e.ToDF()
	var sb strings.Builder
	sb.WriteString("route=")
	sb.WriteString(e.Extra.Metadata.Route)
	sb.WriteString(" provider=")
	sb.WriteString(e.Provider)
	sb.WriteByte('\n')
	sb.WriteString(strings.Join(t.Columns, "|"))
	sb.WriteByte('\n')
	for _, row := range t.Rows {
		parts := make([]string, len(row))
		for i, v := range row {
			parts[i] = stringify(v)
		}
		sb.WriteString(strings.Join(parts, "|"))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Empty reports whether the envelope carries no records, the signal the
// dispatcher turns into EmptyData when empty results are fatal.
func (e *Envelope) Empty() bool {
	return len(e.Results) == 0
}
