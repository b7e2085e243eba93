package estimator

import "fmt"

// Table is a numeric training table with named columns.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]float64
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		t.index[c] = i
	}
	return t
}

// Append adds one row. Values follow the column order.
func (t *Table) Append(values ...float64) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.columns))
	}
	t.rows = append(t.rows, append([]float64(nil), values...))
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Has reports whether the table has a column.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Column returns a copy of one column.
func (t *Table) Column(name string) ([]float64, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingFeature, name)
	}
	col := make([]float64, len(t.rows))
	for r, row := range t.rows {
		col[r] = row[i]
	}
	return col, nil
}

// Select returns the rows restricted to the given columns, in that order.
func (t *Table) Select(columns []string) ([][]float64, error) {
	idx := make([]int, len(columns))
	for j, c := range columns {
		i, ok := t.index[c]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingFeature, c)
		}
		idx[j] = i
	}

	out := make([][]float64, len(t.rows))
	for r, row := range t.rows {
		sel := make([]float64, len(idx))
		for j, i := range idx {
			sel[j] = row[i]
		}
		out[r] = sel
	}
	return out, nil
}

// Subset returns a table holding the given rows.
func (t *Table) Subset(rows []int) *Table {
	sub := NewTable(t.columns...)
	for _, r := range rows {
		sub.rows = append(sub.rows, t.rows[r])
	}
	return sub
}

// Row returns row r as a FeatureRow.
func (t *Table) Row(r int) FeatureRow {
	row := make(FeatureRow, len(t.columns))
	for i, c := range t.columns {
		row[c] = t.rows[r][i]
	}
	return row
}

// FeatureRow maps feature names to values for a single prediction.
type FeatureRow map[string]float64

// vector orders the row by features.
func (r FeatureRow) vector(features []string) ([]float64, error) {
	v := make([]float64, len(features))
	for i, f := range features {
		val, ok := r[f]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingFeature, f)
		}
		v[i] = val
	}
	return v, nil
}
