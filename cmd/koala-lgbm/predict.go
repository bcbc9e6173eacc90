package main

import (
	"flag"
	"io"
	"os"

	"github.com/koalaml/koala-lightgbm/core/table"
	"github.com/koalaml/koala-lightgbm/pkg/errors"
	"github.com/koalaml/koala-lightgbm/pkg/log"
	"github.com/koalaml/koala-lightgbm/preprocessing"
)

// PredictionColumn is the header of the predict output.
const PredictionColumn = "prediction"

func runPredict(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	fs.SetOutput(stderr)
	modelPath := fs.String("model", "model.msgpack", "model written by train")
	data := fs.String("data", "", "CSV with the training feature columns")
	out := fs.String("out", "", "write predictions to this CSV instead of stdout")
	logLevel := fs.String("log-level", "warn", "debug, info, warn, error or silent")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *data == "" {
		return errors.NewValidationError("data", "input data is required", *data)
	}
	if err := log.SetupLogger(*logLevel); err != nil {
		return err
	}

	bundle, err := loadBundle(*modelPath)
	if err != nil {
		return err
	}
	// parse with the kinds seen at fit time so a batch of numeric-looking
	// codes still matches a string categorical column
	tbl, err := readTable(*data, bundle.Scheme.Kinds())
	if err != nil {
		return err
	}
	if tbl.Has(bundle.Target) {
		tbl = tbl.Drop(bundle.Target)
	}

	tr := preprocessing.NewCategoricalTransformer(false)
	X, err := tr.Transform(bundle.Scheme, tbl)
	if err != nil {
		return err
	}
	w, err := newWrapper(bundle.Task)
	if err != nil {
		return err
	}
	p, err := w.Predict(bundle.Booster, X, false, -1)
	if err != nil {
		return err
	}

	result := table.MustNew(table.FloatColumn(PredictionColumn, p.RawVector().Data))
	if *out == "" {
		return table.WriteCSV(stdout, result)
	}
	f, err := os.Create(*out)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", *out)
	}
	if err := table.WriteCSV(f, result); err != nil {
		f.Close()
		return err
	}
	return errors.WithStack(f.Close())
}
