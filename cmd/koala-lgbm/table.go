package main

import (
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/koalaml/koala-lightgbm/core/table"
	"github.com/koalaml/koala-lightgbm/pkg/errors"
)

// readTable reads a CSV file. Columns named in kinds are parsed as that kind,
// the rest are inferred.
func readTable(path string, kinds map[string]table.Kind) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()
	t, err := table.ReadCSVWithKinds(f, kinds)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return t, nil
}

// splitTarget removes the target column from t and returns it as a vector.
func splitTarget(t *table.Table, target string) (*table.Table, *mat.VecDense, error) {
	col, ok := t.Column(target)
	if !ok {
		return nil, nil, errors.NewSchemaError("splitTarget", []string{target})
	}
	y := make([]float64, col.Len())
	for i := range y {
		v, ok := col.AsFloat64(i)
		if !ok {
			return nil, nil, errors.NewDataConversionError(target, col.Kind.String(), "float64")
		}
		y[i] = v
	}
	return t.Drop(target), mat.NewVecDense(len(y), y), nil
}
