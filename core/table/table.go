// Package table provides a small columnar table of named, typed columns.
//
// Tables are the input of the categorical transformer: each column holds
// float, integer or string values and every column has the same length.
package table

import (
	"fmt"
	"math"
	"strconv"

	"github.com/koalaml/koala-lightgbm/pkg/errors"
)

// Kind is the element type of a column.
type Kind int

const (
	// Float holds float64 values.
	Float Kind = iota
	// Int holds int64 values.
	Int
	// String holds string values.
	String
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Float:
		return "float64"
	case Int:
		return "int64"
	case String:
		return "string"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Column is a named sequence of values of one Kind. Exactly one of the value
// slices is populated, selected by Kind.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Ints    []int64
	Strings []string
}

// FloatColumn creates a Float column.
func FloatColumn(name string, values []float64) *Column {
	return &Column{Name: name, Kind: Float, Floats: values}
}

// IntColumn creates an Int column.
func IntColumn(name string, values []int64) *Column {
	return &Column{Name: name, Kind: Int, Ints: values}
}

// StringColumn creates a String column.
func StringColumn(name string, values []string) *Column {
	return &Column{Name: name, Kind: String, Strings: values}
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	switch c.Kind {
	case Float:
		return len(c.Floats)
	case Int:
		return len(c.Ints)
	default:
		return len(c.Strings)
	}
}

// Value returns the i-th value boxed in an interface.
func (c *Column) Value(i int) interface{} {
	switch c.Kind {
	case Float:
		return c.Floats[i]
	case Int:
		return c.Ints[i]
	default:
		return c.Strings[i]
	}
}

// AsFloat64 returns the i-th value as float64. String columns cannot be
// converted and report ok == false.
func (c *Column) AsFloat64(i int) (float64, bool) {
	switch c.Kind {
	case Float:
		return c.Floats[i], true
	case Int:
		return float64(c.Ints[i]), true
	default:
		return math.NaN(), false
	}
}

// Table is an ordered set of uniquely named columns of equal length.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New builds a table from columns. Column names must be unique and all
// columns must have the same length.
func New(columns ...*Column) (*Table, error) {
	t := &Table{
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if c == nil {
			return nil, errors.NewValidationError("columns", "nil column", i)
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, errors.NewValidationError("columns", "duplicate column name", c.Name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, errors.NewDimensionError("table.New", t.rows, c.Len(), 0)
		}
		t.index[c.Name] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// MustNew is like New but panics on error. Intended for tests and fixtures.
func MustNew(columns ...*Column) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.columns) }

// Names returns the column names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in table order. The slice must not be modified.
func (t *Table) Columns() []*Column { return t.columns }

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Has reports whether the table has a column with the given name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Missing returns the names from want that are not columns of t, in order.
func (t *Table) Missing(want []string) []string {
	var missing []string
	for _, name := range want {
		if !t.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Select projects the table onto names in the given order. Every missing
// name is reported in a single SchemaError.
func (t *Table) Select(names ...string) (*Table, error) {
	if missing := t.Missing(names); len(missing) > 0 {
		return nil, errors.NewSchemaError("Select", missing)
	}
	cols := make([]*Column, len(names))
	for i, name := range names {
		cols[i] = t.columns[t.index[name]]
	}
	return New(cols...)
}

// Drop returns a table without the named column. Missing names are ignored.
func (t *Table) Drop(name string) *Table {
	cols := make([]*Column, 0, len(t.columns))
	for _, c := range t.columns {
		if c.Name != name {
			cols = append(cols, c)
		}
	}
	out, _ := New(cols...)
	return out
}

// Row returns the values of row i formatted as strings, in column order.
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.columns))
	for j, c := range t.columns {
		switch c.Kind {
		case Float:
			row[j] = strconv.FormatFloat(c.Floats[i], 'g', -1, 64)
		case Int:
			row[j] = strconv.FormatInt(c.Ints[i], 10)
		default:
			row[j] = c.Strings[i]
		}
	}
	return row
}
