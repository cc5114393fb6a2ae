package pages

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roadassist/portal/internal/backend"
)

const dateLayout = "02 Jan 2006"

// Cell is one formatted table cell.
type Cell struct {
	Text    string
	Numeric bool
}

// Row is one table row. The first cell links to Href when set.
type Row struct {
	Href  string
	Cells []Cell
}

// HeaderCell is one table header.
type HeaderCell struct {
	Label   string
	Numeric bool
}

// Table feeds partials/table.html.
type Table struct {
	Columns []HeaderCell
	Rows    []Row
}

// Field is one label/value pair of a detail page.
type Field struct {
	Label string
	Value string
}

// BuildTable formats records for the given columns.
func BuildTable(res Resource, records []backend.Record) Table {
	t := Table{Columns: make([]HeaderCell, 0, len(res.Columns)), Rows: make([]Row, 0, len(records))}
	for _, c := range res.Columns {
		t.Columns = append(t.Columns, HeaderCell{Label: c.Label, Numeric: c.Numeric()})
	}
	for _, rec := range records {
		row := Row{Href: res.DetailHref(RecordID(rec)), Cells: make([]Cell, 0, len(res.Columns))}
		for _, c := range res.Columns {
			row.Cells = append(row.Cells, Cell{Text: FormatValue(rec[c.Field], c.Kind), Numeric: c.Numeric()})
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// BuildFields formats a record for a detail page.
func BuildFields(columns []Column, rec backend.Record) []Field {
	out := make([]Field, 0, len(columns))
	for _, c := range columns {
		out = append(out, Field{Label: c.Label, Value: FormatValue(rec[c.Field], c.Kind)})
	}
	return out
}

// RecordID returns the record id as text.
func RecordID(rec backend.Record) string {
	switch id := rec["id"].(type) {
	case nil:
		return ""
	case string:
		return id
	case json.Number:
		return id.String()
	default:
		return fmt.Sprint(id)
	}
}

// FormatValue renders a decoded JSON value for display.
func FormatValue(v any, kind ColumnKind) string {
	if v == nil {
		return "-"
	}
	switch kind {
	case KindMoney:
		if d, ok := toDecimal(v); ok {
			return d.StringFixed(2)
		}
	case KindNumber:
		if d, ok := toDecimal(v); ok {
			return d.String()
		}
	case KindDate:
		if s, ok := v.(string); ok {
			if t, ok := parseTime(s); ok {
				return t.Format(dateLayout)
			}
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			if b {
				return "Yes"
			}
			return "No"
		}
	}
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(x)
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(x), true
	default:
		return decimal.Decimal{}, false
	}
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly, time.DateTime} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
