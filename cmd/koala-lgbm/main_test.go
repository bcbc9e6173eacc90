package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koalaml/koala-lightgbm/core/table"
	"github.com/koalaml/koala-lightgbm/pkg/errors"
)

var cities = []string{"NY", "LA", "SF", "TX"}

// writeCityCSV writes n rows of (x, city, y, churned) where y depends mostly
// on city and churned is 1 for NY and SF.
func writeCityCSV(t *testing.T, dir string, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("x,city,y,churned\n")
	for i := 0; i < n; i++ {
		c := i % len(cities)
		x := float64(i%50) + 0.5
		churned := 0
		if c == 0 || c == 2 {
			churned = 1
		}
		fmt.Fprintf(&b, "%.1f,%s,%.3f,%d\n", x, cities[c], 10*float64(c)+x/100, churned)
	}
	path := filepath.Join(dir, "train.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

const testConfig = `task: regression
target: y
log_level: silent
verbosity: -1
params:
  num_iterations: 30
  learning_rate: 0.3
  num_leaves: 8
  min_data_in_leaf: 5
  min_sum_hessian_in_leaf: 0
  validation_fraction: 0.2
  seed: 7
`

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "train.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func readPredictions(t *testing.T, data []byte) []float64 {
	t.Helper()
	tbl, err := table.ReadCSV(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, []string{PredictionColumn}, tbl.Names())
	col, _ := tbl.Column(PredictionColumn)
	out := make([]float64, col.Len())
	for i := range out {
		out[i], _ = col.AsFloat64(i)
	}
	return out
}

func TestTrainAndPredictRegression(t *testing.T) {
	dir := t.TempDir()
	data := writeCityCSV(t, dir, 200)
	cfg := writeConfig(t, dir, testConfig)
	modelPath := filepath.Join(dir, "model.msgpack")
	plotPath := filepath.Join(dir, "curve.png")

	var stdout, stderr bytes.Buffer
	code := run([]string{"train", "-data", data, "-config", cfg, "-out", modelPath, "-plot", plotPath}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "train_samples\t160")
	assert.Contains(t, stdout.String(), "validation_samples\t40")
	assert.Contains(t, stdout.String(), "l2\t")
	assert.FileExists(t, modelPath)
	info, err := os.Stat(plotPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	bundle, err := loadBundle(modelPath)
	require.NoError(t, err)
	assert.Equal(t, TaskRegression, bundle.Task)
	assert.Equal(t, "y", bundle.Target)
	// churned is an integer column and stays numeric
	assert.Equal(t, []string{"x", "city", "churned"}, bundle.Scheme.Features)
	assert.Equal(t, []string{"city"}, bundle.Scheme.Categorical)
	assert.Equal(t, []int{1}, bundle.Booster.CategoricalFeatures)
	assert.Equal(t, "l2", bundle.Report.Metric)
	assert.NotEmpty(t, bundle.Report.RMSRawValidationErrors)

	predPath := filepath.Join(dir, "pred.csv")
	stdout.Reset()
	code = run([]string{"predict", "-model", modelPath, "-data", data, "-out", predPath, "-log-level", "silent"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Empty(t, stdout.String())

	written, err := os.ReadFile(predPath)
	require.NoError(t, err)
	preds := readPredictions(t, written)
	require.Len(t, preds, 200)
	// rows 0..3 are NY, LA, SF, TX with targets near 0, 10, 20, 30
	for c := range cities {
		assert.InDelta(t, 10*float64(c), preds[c], 3, cities[c])
	}

	stdout.Reset()
	code = run([]string{"predict", "-model", modelPath, "-data", data, "-log-level", "silent"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, preds, readPredictions(t, stdout.Bytes()))
}

func TestTrainBinaryWithFlagOverrides(t *testing.T) {
	dir := t.TempDir()
	data := writeCityCSV(t, dir, 200)
	cfg := writeConfig(t, dir, testConfig)
	modelPath := filepath.Join(dir, "model.msgpack")

	var stdout, stderr bytes.Buffer
	// y stays in the features as a float column; city is still categorical
	code := run([]string{"train", "-data", data, "-config", cfg, "-out", modelPath,
		"-task", "binary", "-target", "churned", "-categorical", "city"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "binary_logloss\t")

	bundle, err := loadBundle(modelPath)
	require.NoError(t, err)
	assert.Equal(t, TaskBinary, bundle.Task)
	assert.Equal(t, "binary", bundle.Booster.Objective)

	stdout.Reset()
	code = run([]string{"predict", "-model", modelPath, "-data", data, "-log-level", "silent"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	preds := readPredictions(t, stdout.Bytes())
	require.Len(t, preds, 200)
	for i, p := range preds {
		assert.True(t, p >= 0 && p <= 1, "row %d: %v", i, p)
	}
	assert.Greater(t, preds[0], 0.5)
	assert.Less(t, preds[1], 0.5)
}

func TestPredictUnseenCategory(t *testing.T) {
	dir := t.TempDir()
	data := writeCityCSV(t, dir, 200)
	cfg := writeConfig(t, dir, testConfig)
	modelPath := filepath.Join(dir, "model.msgpack")

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"train", "-data", data, "-config", cfg, "-out", modelPath}, &stdout, &stderr), stderr.String())

	// the target column is optional at predict time and column order is free
	unseen := filepath.Join(dir, "unseen.csv")
	require.NoError(t, os.WriteFile(unseen, []byte("churned,city,x\n0,Boston,1.5\n1,NY,2.5\n"), 0o600))
	stdout.Reset()
	code := run([]string{"predict", "-model", modelPath, "-data", unseen, "-log-level", "silent"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	preds := readPredictions(t, stdout.Bytes())
	require.Len(t, preds, 2)
	assert.False(t, preds[0] != preds[0], "unseen category must still predict")
}

func TestPredictNumericCodesForStringCategory(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("x,zone,y\n")
	for i := 0; i < 300; i++ {
		zone, base := "A1", 5.0
		if i%2 == 1 {
			zone, base = "10001", -5.0
		}
		x := float64(i%30) + 0.5
		fmt.Fprintf(&b, "%.1f,%s,%.3f\n", x, zone, base+x/100)
	}
	data := filepath.Join(dir, "zones.csv")
	require.NoError(t, os.WriteFile(data, []byte(b.String()), 0o600))
	cfg := writeConfig(t, dir, testConfig)
	modelPath := filepath.Join(dir, "model.msgpack")

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"train", "-data", data, "-config", cfg, "-out", modelPath}, &stdout, &stderr), stderr.String())

	// every zone in this batch looks like an integer
	batch := filepath.Join(dir, "batch.csv")
	require.NoError(t, os.WriteFile(batch, []byte("x,zone\n1,10001\n2,10001\n"), 0o600))
	stdout.Reset()
	stderr.Reset()
	code := run([]string{"predict", "-model", modelPath, "-data", batch, "-log-level", "silent"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	preds := readPredictions(t, stdout.Bytes())
	require.Len(t, preds, 2)
	for _, p := range preds {
		assert.InDelta(t, -5, p, 1)
	}
}

func TestPredictMissingFeature(t *testing.T) {
	dir := t.TempDir()
	data := writeCityCSV(t, dir, 200)
	cfg := writeConfig(t, dir, testConfig)
	modelPath := filepath.Join(dir, "model.msgpack")

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"train", "-data", data, "-config", cfg, "-out", modelPath}, &stdout, &stderr), stderr.String())

	partial := filepath.Join(dir, "partial.csv")
	require.NoError(t, os.WriteFile(partial, []byte("x\n1.5\n"), 0o600))
	stderr.Reset()
	code := run([]string{"predict", "-model", modelPath, "-data", partial, "-log-level", "silent"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "city")
}

func TestRunUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no command", nil, 2},
		{"unknown command", []string{"serve"}, 2},
		{"help", []string{"help"}, 0},
		{"train help", []string{"train", "-h"}, 0},
		{"train without data", []string{"train", "-log-level", "silent"}, 1},
		{"predict without data", []string{"predict", "-log-level", "silent"}, 1},
		{"predict missing model", []string{"predict", "-model", "does-not-exist.msgpack", "-data", "x.csv", "-log-level", "silent"}, 1},
		{"bad flag", []string{"train", "-bogus"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.code, run(tt.args, &stdout, &stderr))
		})
	}
}

func TestRunRecoversPanics(t *testing.T) {
	commands["explode"] = func([]string, io.Writer, io.Writer) error {
		panic("boom")
	}
	t.Cleanup(func() { delete(commands, "explode") })

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"explode"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "panic in explode: boom")
}

func TestSplitTarget(t *testing.T) {
	tbl := table.MustNew(
		table.FloatColumn("x", []float64{1, 2}),
		table.IntColumn("y", []int64{0, 1}),
		table.StringColumn("name", []string{"a", "b"}),
	)

	features, y, err := splitTarget(tbl, "y")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "name"}, features.Names())
	assert.Equal(t, []float64{0, 1}, y.RawVector().Data)

	_, _, err = splitTarget(tbl, "label")
	var schemaErr *errors.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"label"}, schemaErr.Missing)

	_, _, err = splitTarget(tbl, "name")
	var convErr *errors.DataConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "name", convErr.Column)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{strconv.Itoa(3)}, splitList("3"))
}
