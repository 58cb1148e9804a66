// Package filter narrows datasets down to the rows of interest.
//
// A filter is a list of conditions on named columns, all of which must hold:
//   - "pos=WR|TE"            cell equals one of the alternatives (case-insensitive)
//   - "school_name~alabama"  cell contains one of the alternatives (case-insensitive)
//   - "forty_yd<=4.4"        numeric comparison, also >=, < and >
//
// Index parts such as combine_year or player_id can be filtered like columns.
// Missing cells never match.
//
// Example usage:
//
//	f, err := filter.Parse([]string{"pos=WR", "forty_yd<4.4"})
//	if err != nil {
//		return err
//	}
//	fast, err := f.Apply(ds)
package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pfrederiksen/pfr-stats/internal/dataset"
)

// Op is a comparison operator
type Op string

const (
	OpEqual     Op = "="
	OpContains  Op = "~"
	OpLess      Op = "<"
	OpLessEq    Op = "<="
	OpGreater   Op = ">"
	OpGreaterEq Op = ">="
)

// parse order matters: two-character operators first
var ops = []Op{OpLessEq, OpGreaterEq, OpEqual, OpContains, OpLess, OpGreater}

// Condition tests one column
type Condition struct {
	Column string
	Op     Op
	// Values are the alternatives for = and ~
	Values []string
	// Number is the operand of numeric comparisons
	Number float64
}

// Filter represents row filtering criteria
type Filter struct {
	Conditions []Condition
}

// Parse builds a filter from expressions such as "pos=WR|TE"
func Parse(exprs []string) (*Filter, error) {
	f := &Filter{}
	for _, expr := range exprs {
		c, err := parseCondition(expr)
		if err != nil {
			return nil, err
		}
		f.Conditions = append(f.Conditions, c)
	}
	return f, nil
}

func parseCondition(expr string) (Condition, error) {
	expr = strings.TrimSpace(expr)
	for _, op := range ops {
		i := strings.Index(expr, string(op))
		if i <= 0 {
			continue
		}
		// "<" must not claim the start of "<="
		if (op == OpLess || op == OpGreater) && strings.HasPrefix(expr[i+1:], "=") {
			continue
		}

		c := Condition{
			Column: strings.TrimSpace(expr[:i]),
			Op:     op,
		}
		operand := strings.TrimSpace(expr[i+len(op):])
		if operand == "" {
			return Condition{}, fmt.Errorf("filter %q: missing value", expr)
		}

		switch op {
		case OpEqual, OpContains:
			for _, v := range strings.Split(operand, "|") {
				if v = strings.TrimSpace(v); v != "" {
					c.Values = append(c.Values, strings.ToLower(v))
				}
			}
		default:
			n, err := strconv.ParseFloat(operand, 64)
			if err != nil {
				return Condition{}, fmt.Errorf("filter %q: %q is not a number", expr, operand)
			}
			c.Number = n
		}
		return c, nil
	}
	return Condition{}, fmt.Errorf("filter %q: expected column, operator and value", expr)
}

// IsEmpty checks if the filter has any active criteria
func (f *Filter) IsEmpty() bool {
	return f == nil || len(f.Conditions) == 0
}

// Matches reports whether v satisfies c
func (c Condition) Matches(v dataset.Value) bool {
	if v.IsMissing() {
		return false
	}

	switch c.Op {
	case OpEqual, OpContains:
		s := strings.ToLower(v.String())
		for _, want := range c.Values {
			if c.Op == OpEqual && s == want {
				return true
			}
			if c.Op == OpContains && strings.Contains(s, want) {
				return true
			}
		}
		return false
	}

	n, ok := v.Float()
	if !ok {
		return false
	}
	switch c.Op {
	case OpLess:
		return n < c.Number
	case OpLessEq:
		return n <= c.Number
	case OpGreater:
		return n > c.Number
	case OpGreaterEq:
		return n >= c.Number
	}
	return false
}

// Apply returns the rows of ds that match every condition. A condition naming
// a column ds does not have is an error.
func (f *Filter) Apply(ds dataset.Dataset) (dataset.Dataset, error) {
	if f.IsEmpty() {
		return ds, nil
	}

	header, rows := ds.Table()
	cols := make([]int, len(f.Conditions))
	for i, c := range f.Conditions {
		cols[i] = -1
		for j, name := range header {
			if name == c.Column {
				cols[i] = j
				break
			}
		}
		if cols[i] < 0 {
			return dataset.Dataset{}, fmt.Errorf("filter on unknown column %q", c.Column)
		}
	}

	var keep []int
	for r, row := range rows {
		matched := true
		for i, c := range f.Conditions {
			if !c.Matches(row[cols[i]]) {
				matched = false
				break
			}
		}
		if matched {
			keep = append(keep, r)
		}
	}

	return ds.Rows(keep), nil
}

// String returns a human-readable description of the active conditions
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	parts := make([]string, len(f.Conditions))
	for i, c := range f.Conditions {
		switch c.Op {
		case OpEqual, OpContains:
			parts[i] = c.Column + string(c.Op) + strings.Join(c.Values, "|")
		default:
			parts[i] = c.Column + string(c.Op) + strconv.FormatFloat(c.Number, 'f', -1, 64)
		}
	}
	return strings.Join(parts, " AND ")
}
