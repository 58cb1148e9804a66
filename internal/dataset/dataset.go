package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrLengthMismatch is returned when parallel inputs differ in length
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrMissingIndexField is returned when a row lacks the field its index key comes from
	ErrMissingIndexField = errors.New("missing index field")
)

// ColumnType is the type a column settled on after coercion
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeNumber
)

func (t ColumnType) String() string {
	if t == TypeNumber {
		return "number"
	}
	return "text"
}

// MarshalText implements encoding.TextMarshaler
func (t ColumnType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *ColumnType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "number":
		*t = TypeNumber
	case "text":
		*t = TypeText
	default:
		return fmt.Errorf("unknown column type: %s", b)
	}
	return nil
}

// Column is a named, typed sequence of cells
type Column struct {
	Name   string     `json:"name"`
	Type   ColumnType `json:"type"`
	Values []Value    `json:"values"`
}

// Key is one composite index entry
type Key []Value

// Dataset is an ordered table of columns with an optional composite index.
// When Index is set it holds one key per row, each with len(IndexNames) parts.
type Dataset struct {
	IndexNames []string `json:"index_names,omitempty"`
	Index      []Key    `json:"index,omitempty"`
	Columns    []Column `json:"columns"`
}

// Len returns the number of rows
func (d Dataset) Len() int {
	if len(d.Columns) > 0 {
		return len(d.Columns[0].Values)
	}
	return len(d.Index)
}

// Empty reports whether the dataset has no rows
func (d Dataset) Empty() bool {
	return d.Len() == 0
}

// ColumnNames returns the column names in order
func (d Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name
func (d Dataset) Column(name string) (Column, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// TakeColumn removes the named column, returning it and the remaining dataset
func (d Dataset) TakeColumn(name string) (Column, Dataset, bool) {
	for i, c := range d.Columns {
		if c.Name != name {
			continue
		}
		rest := d
		rest.Columns = make([]Column, 0, len(d.Columns)-1)
		rest.Columns = append(rest.Columns, d.Columns[:i]...)
		rest.Columns = append(rest.Columns, d.Columns[i+1:]...)
		return c, rest, true
	}
	return Column{}, d, false
}

// MapColumn returns a copy of d with fn applied to every cell of the named column
func (d Dataset) MapColumn(name string, fn func(Value) Value) Dataset {
	out := d
	out.Columns = make([]Column, len(d.Columns))
	copy(out.Columns, d.Columns)
	for i, c := range out.Columns {
		if c.Name != name {
			continue
		}
		values := make([]Value, len(c.Values))
		for j, v := range c.Values {
			values[j] = fn(v)
		}
		out.Columns[i].Values = values
	}
	return out
}

// WithIndex attaches a composite index to d. A dataset without columns takes
// its row count from keys.
func (d Dataset) WithIndex(names []string, keys []Key) (Dataset, error) {
	if len(d.Columns) > 0 && len(keys) != d.Len() {
		return Dataset{}, fmt.Errorf("%w: %d index keys for %d rows", ErrLengthMismatch, len(keys), d.Len())
	}
	for i, k := range keys {
		if len(k) != len(names) {
			return Dataset{}, fmt.Errorf("%w: index key %d has %d parts, want %d", ErrLengthMismatch, i, len(k), len(names))
		}
	}
	out := d
	out.IndexNames = append([]string(nil), names...)
	out.Index = keys
	return out, nil
}

// Table flattens d into a header and rows, index parts first
func (d Dataset) Table() ([]string, [][]Value) {
	header := make([]string, 0, len(d.IndexNames)+len(d.Columns))
	header = append(header, d.IndexNames...)
	header = append(header, d.ColumnNames()...)

	rows := make([][]Value, d.Len())
	for i := range rows {
		row := make([]Value, 0, len(header))
		if i < len(d.Index) {
			row = append(row, d.Index[i]...)
		}
		for _, c := range d.Columns {
			row = append(row, c.Values[i])
		}
		rows[i] = row
	}
	return header, rows
}

// FromRecords assembles records into text columns ordered by first appearance
// of each stat key. Keys absent from a record and empty strings become missing.
func FromRecords(records []Record) Dataset {
	var names []string
	seen := make(map[string]bool)
	for _, rec := range records {
		for _, f := range rec {
			if !seen[f.Key] {
				seen[f.Key] = true
				names = append(names, f.Key)
			}
		}
	}

	columns := make([]Column, len(names))
	for i, name := range names {
		values := make([]Value, len(records))
		for j, rec := range records {
			raw, _ := rec.Get(name)
			values[j] = Text(raw)
		}
		columns[i] = Column{Name: name, Type: TypeText, Values: values}
	}
	return Dataset{Columns: columns}
}

// Coerce settles the type of every column. Columns listed in keepText are
// always left as text.
func Coerce(d Dataset, keepText ...string) Dataset {
	skip := make(map[string]bool, len(keepText))
	for _, name := range keepText {
		skip[name] = true
	}

	out := d
	out.Columns = make([]Column, len(d.Columns))
	for i, c := range d.Columns {
		if skip[c.Name] {
			out.Columns[i] = asText(c)
			continue
		}
		out.Columns[i] = coerceColumn(c)
	}
	return out
}

// coerceColumn converts c to numbers when it has at least one value and all
// non-missing values parse; otherwise it is returned as text.
func coerceColumn(c Column) Column {
	nums := make([]Value, len(c.Values))
	present := false
	for i, v := range c.Values {
		if v.IsMissing() {
			continue
		}
		present = true
		f, ok := parseNumber(v.String())
		if !ok {
			return asText(c)
		}
		nums[i] = Number(f)
	}
	if !present {
		return asText(c)
	}
	return Column{Name: c.Name, Type: TypeNumber, Values: nums}
}

func asText(c Column) Column {
	values := make([]Value, len(c.Values))
	for i, v := range c.Values {
		values[i] = Text(v.String())
	}
	return Column{Name: c.Name, Type: TypeText, Values: values}
}

// HConcat places the columns of parts side by side, aligned by row position.
// Shorter parts are padded with missing cells. Any index is dropped.
func HConcat(parts ...Dataset) Dataset {
	n := 0
	for _, p := range parts {
		if p.Len() > n {
			n = p.Len()
		}
	}

	var columns []Column
	for _, p := range parts {
		for _, c := range p.Columns {
			columns = append(columns, Column{Name: c.Name, Type: c.Type, Values: pad(c.Values, n)})
		}
	}
	return Dataset{Columns: columns}
}

// DedupColumns keeps the first column for each name and drops later columns
// with the same name. The kept column's cells, missing ones included, are
// left untouched.
func DedupColumns(d Dataset) Dataset {
	out := d
	out.Columns = nil
	seen := make(map[string]bool)
	for _, c := range d.Columns {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		out.Columns = append(out.Columns, Column{Name: c.Name, Type: c.Type, Values: append([]Value(nil), c.Values...)})
	}
	return out
}

// Concat stacks parts vertically. Columns are the union of all parts in order
// of first appearance, padded with missing cells, and re-coerced over the
// combined values; a column that holds text in any part stays text. Parts
// without rows are skipped. Indexed parts must share the same index names.
func Concat(parts ...Dataset) (Dataset, error) {
	var out Dataset
	var names []string
	seen := make(map[string]bool)
	first := true
	for i, p := range parts {
		if p.Empty() {
			continue
		}
		if first {
			out.IndexNames = append([]string(nil), p.IndexNames...)
			first = false
		} else if !sameNames(out.IndexNames, p.IndexNames) {
			return Dataset{}, fmt.Errorf("concatenating part %d: index %v does not match %v", i, p.IndexNames, out.IndexNames)
		}
		for _, c := range p.Columns {
			if !seen[c.Name] {
				seen[c.Name] = true
				names = append(names, c.Name)
			}
		}
	}

	values := make(map[string][]Value, len(names))
	textual := make(map[string]bool)
	for _, p := range parts {
		if p.Empty() {
			continue
		}
		n := p.Len()
		for _, name := range names {
			c, ok := p.Column(name)
			if !ok {
				values[name] = append(values[name], pad(nil, n)...)
				continue
			}
			values[name] = append(values[name], c.Values...)
			if c.Type == TypeText && hasValues(c) {
				textual[name] = true
			}
		}
		if len(out.IndexNames) > 0 {
			out.Index = append(out.Index, p.Index...)
		}
	}

	out.Columns = make([]Column, len(names))
	for i, name := range names {
		c := Column{Name: name, Values: values[name]}
		if textual[name] {
			out.Columns[i] = asText(c)
			continue
		}
		out.Columns[i] = coerceColumn(c)
	}
	return out, nil
}

func pad(values []Value, n int) []Value {
	out := make([]Value, n)
	copy(out, values)
	return out
}

func hasValues(c Column) bool {
	for _, v := range c.Values {
		if !v.IsMissing() {
			return true
		}
	}
	return false
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
