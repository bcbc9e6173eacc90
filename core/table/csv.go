package table

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/koalaml/koala-lightgbm/pkg/errors"
)

// ReadCSV reads a table from CSV with a header row. Each column's kind is
// inferred from its cells: Int if every cell parses as an integer, Float if
// every cell parses as a number, String otherwise. Empty cells in numeric
// columns become NaN and force the column to Float.
func ReadCSV(r io.Reader) (*Table, error) {
	return ReadCSVWithKinds(r, nil)
}

// ReadCSVWithKinds is ReadCSV with the kind of some columns fixed up front.
// Columns named in kinds are parsed as that kind from the cell text; a cell
// that does not parse is a DataConversionError. Other columns are inferred.
func ReadCSVWithKinds(r io.Reader, kinds map[string]Kind) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "table: failed to read CSV")
	}
	if len(records) == 0 {
		return nil, errors.WithStack(errors.ErrEmptyData)
	}

	header := records[0]
	body := records[1:]
	cols := make([]*Column, len(header))
	for j, name := range header {
		cells := make([]string, len(body))
		for i, rec := range body {
			cells[i] = rec[j]
		}
		name = strings.TrimSpace(name)
		kind, ok := kinds[name]
		if !ok {
			cols[j] = inferColumn(name, cells)
			continue
		}
		c, err := parseColumn(name, cells, kind)
		if err != nil {
			return nil, err
		}
		cols[j] = c
	}
	return New(cols...)
}

func parseColumn(name string, cells []string, kind Kind) (*Column, error) {
	switch kind {
	case String:
		return StringColumn(name, cells), nil
	case Int:
		ints := make([]int64, len(cells))
		for i, cell := range cells {
			v, err := strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
			if err != nil {
				return nil, errors.NewDataConversionError(name, String.String(), Int.String())
			}
			ints[i] = v
		}
		return IntColumn(name, ints), nil
	case Float:
		floats := make([]float64, len(cells))
		for i, cell := range cells {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				floats[i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, errors.NewDataConversionError(name, String.String(), Float.String())
			}
			floats[i] = v
		}
		return FloatColumn(name, floats), nil
	default:
		return nil, errors.NewValidationError("kind", "unsupported column kind", kind.String())
	}
}

func inferColumn(name string, cells []string) *Column {
	isInt, isFloat := true, true
	hasEmpty := false
	for _, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			hasEmpty = true
			continue
		}
		if isInt {
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				isInt = false
			}
		}
		if !isInt {
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				isFloat = false
				break
			}
		}
	}

	switch {
	case isInt && !hasEmpty && len(cells) > 0:
		ints := make([]int64, len(cells))
		for i, cell := range cells {
			ints[i], _ = strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
		}
		return IntColumn(name, ints)
	case isFloat && len(cells) > 0:
		floats := make([]float64, len(cells))
		for i, cell := range cells {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				floats[i] = math.NaN()
				continue
			}
			floats[i], _ = strconv.ParseFloat(cell, 64)
		}
		return FloatColumn(name, floats)
	default:
		return StringColumn(name, cells)
	}
}

// WriteCSV writes the table with a header row.
func WriteCSV(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Names()); err != nil {
		return errors.Wrap(err, "table: failed to write CSV header")
	}
	for i := 0; i < t.NumRows(); i++ {
		if err := writer.Write(t.Row(i)); err != nil {
			return errors.Wrapf(err, "table: failed to write CSV row %d", i)
		}
	}
	writer.Flush()
	return errors.WithStack(writer.Error())
}
