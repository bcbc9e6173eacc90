package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/koalaml/koala-lightgbm/engine/gbdt"
	"github.com/koalaml/koala-lightgbm/koala/lightgbm"
	"github.com/koalaml/koala-lightgbm/pkg/errors"
	"github.com/koalaml/koala-lightgbm/pkg/log"
	"github.com/koalaml/koala-lightgbm/preprocessing"
)

type trainOptions struct {
	data        string
	config      string
	out         string
	plot        string
	target      string
	task        string
	categorical string
	sorted      bool
	logLevel    string
	verbosity   int
}

func parseTrainFlags(args []string, stderr io.Writer) (*trainOptions, *flag.FlagSet, error) {
	o := &trainOptions{}
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.data, "data", "", "training CSV with a header row")
	fs.StringVar(&o.config, "config", "", "YAML training config")
	fs.StringVar(&o.out, "out", "model.msgpack", "model output path")
	fs.StringVar(&o.plot, "plot", "", "write the validation curve to this image (.png, .svg)")
	fs.StringVar(&o.target, "target", "", "target column (overrides config)")
	fs.StringVar(&o.task, "task", "", "regression or binary (overrides config)")
	fs.StringVar(&o.categorical, "categorical", "", "comma separated categorical columns (overrides config)")
	fs.BoolVar(&o.sorted, "sorted", false, "code categories in sorted order")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn, error or silent (overrides config)")
	fs.IntVar(&o.verbosity, "verbosity", 0, "training verbosity (overrides config)")
	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	if o.data == "" {
		return nil, fs, errors.NewValidationError("data", "training data is required", o.data)
	}
	return o, fs, nil
}

// resolveConfig loads the config file and applies the flags that were set
// explicitly on the command line.
func resolveConfig(o *trainOptions, fs *flag.FlagSet) (*Config, error) {
	cfg := DefaultConfig()
	if o.config != "" {
		var err error
		if cfg, err = LoadConfig(o.config); err != nil {
			return nil, err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "target":
			cfg.Target = o.target
		case "task":
			cfg.Task = o.task
		case "categorical":
			cfg.Categorical = splitList(o.categorical)
		case "sorted":
			cfg.SortedCategories = o.sorted
		case "log-level":
			cfg.LogLevel = o.logLevel
		case "verbosity":
			cfg.Verbosity = o.verbosity
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func runTrain(args []string, stdout, stderr io.Writer) error {
	o, fs, err := parseTrainFlags(args, stderr)
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(o, fs)
	if err != nil {
		return err
	}
	if err := log.SetupLogger(cfg.LogLevel); err != nil {
		return err
	}
	logger := log.GetLoggerWithName("cli")

	tbl, err := readTable(o.data, nil)
	if err != nil {
		return err
	}
	features, y, err := splitTarget(tbl, cfg.Target)
	if err != nil {
		return err
	}

	tr := preprocessing.NewCategoricalTransformer(cfg.SortedCategories, cfg.Categorical...)
	scheme, X, err := tr.FitTransform(features, cfg.Parallel, cfg.Verbosity)
	if err != nil {
		return err
	}

	w, err := newWrapper(cfg.Task)
	if err != nil {
		return err
	}
	if err := w.SetParams(cfg.Params); err != nil {
		return err
	}
	cache, err := w.Setup(X, y, scheme, cfg.Parallel, cfg.Verbosity)
	if err != nil {
		return err
	}
	pred, report, _, err := w.Fit(cache, cfg.Parallel, cfg.Verbosity, false)
	if err != nil {
		return err
	}
	booster, ok := pred.(*gbdt.Booster)
	if !ok {
		return errors.NewValueError("train", fmt.Sprintf("cannot save predictor of type %T", pred))
	}

	bundle := &Bundle{
		Task:    cfg.Task,
		Target:  cfg.Target,
		Scheme:  scheme,
		Booster: booster,
		Report:  report,
	}
	if err := saveBundle(bundle, o.out); err != nil {
		return err
	}
	logger.Info("model saved",
		log.OperationKey, "train",
		log.ModelNameKey, cfg.Task,
		log.SamplesKey, report.TrainSamples,
		"path", o.out,
	)

	if o.plot != "" {
		if err := savePlot(o.plot, report.Metric, report.RMSRawValidationErrors); err != nil {
			return err
		}
	}
	printReport(stdout, report)
	return nil
}

func printReport(w io.Writer, r *lightgbm.Report) {
	fmt.Fprintf(w, "train_samples\t%d\n", r.TrainSamples)
	fmt.Fprintf(w, "validation_samples\t%d\n", r.ValidationSamples)
	fmt.Fprintf(w, "iterations\t%d\n", r.BestIteration)
	if n := len(r.RMSRawValidationErrors); n > 0 {
		fmt.Fprintf(w, "%s\t%g\n", r.Metric, r.RMSRawValidationErrors[n-1])
	}
}
