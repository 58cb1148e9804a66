package dataset

import "strings"

// CellChange is one cell whose value differs between two snapshots of a row
type CellChange struct {
	Key    string `json:"key"`
	Column string `json:"column"`
	Old    Value  `json:"old"`
	New    Value  `json:"new"`
}

// DiffResult contains the results of comparing two datasets
type DiffResult struct {
	// New holds the rows of current whose index key is absent from previous
	New     Dataset
	Changes []CellChange
}

// Diff compares current against previous row by row, matching rows on their index
// keys. Columns missing from previous are not reported as changes. When either
// dataset has no index every current row counts as new.
func Diff(previous, current Dataset) DiffResult {
	prevRows := make(map[string]int, len(previous.Index))
	if sameNames(previous.IndexNames, current.IndexNames) {
		for i, k := range previous.Index {
			prevRows[keyString(k)] = i
		}
	}

	var fresh []int
	var changes []CellChange
	for i := 0; i < current.Len(); i++ {
		if i >= len(current.Index) {
			fresh = append(fresh, i)
			continue
		}
		key := keyString(current.Index[i])
		j, ok := prevRows[key]
		if !ok {
			fresh = append(fresh, i)
			continue
		}

		for _, c := range current.Columns {
			pc, ok := previous.Column(c.Name)
			if !ok || j >= len(pc.Values) {
				continue
			}
			if !equalValues(pc.Values[j], c.Values[i]) {
				changes = append(changes, CellChange{
					Key:    key,
					Column: c.Name,
					Old:    pc.Values[j],
					New:    c.Values[i],
				})
			}
		}
	}

	return DiffResult{
		New:     current.Rows(fresh),
		Changes: changes,
	}
}

// Rows returns a copy of d holding only the given rows, in the given order
func (d Dataset) Rows(rows []int) Dataset {
	out := Dataset{
		IndexNames: append([]string(nil), d.IndexNames...),
		Columns:    make([]Column, len(d.Columns)),
	}
	if len(d.Index) > 0 {
		out.Index = make([]Key, 0, len(rows))
		for _, r := range rows {
			out.Index = append(out.Index, d.Index[r])
		}
	}
	for i, c := range d.Columns {
		values := make([]Value, 0, len(rows))
		for _, r := range rows {
			values = append(values, c.Values[r])
		}
		out.Columns[i] = Column{Name: c.Name, Type: c.Type, Values: values}
	}
	return out
}

func keyString(k Key) string {
	parts := make([]string, len(k))
	for i, v := range k {
		parts[i] = v.String()
	}
	return strings.Join(parts, "|")
}

func equalValues(a, b Value) bool {
	return a.Kind() == b.Kind() && a.String() == b.String()
}
