// Command koala-lgbm trains and applies gradient boosted models on CSV data.
//
//	koala-lgbm train -data train.csv -config train.yaml -out model.msgpack -plot curve.png
//	koala-lgbm predict -model model.msgpack -data test.csv -out predictions.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/koalaml/koala-lightgbm/pkg/errors"
	"github.com/koalaml/koala-lightgbm/pkg/log"
)

const usage = `usage: koala-lgbm <command> [flags]

commands:
  train     fit a regressor or binary classifier on a CSV file
  predict   apply a saved model to a CSV file
`

type command func(args []string, stdout, stderr io.Writer) error

var commands = map[string]command{
	"train":   runTrain,
	"predict": runPredict,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	switch args[0] {
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "koala-lgbm: unknown command %q\n\n%s", args[0], usage)
		return 2
	}
	err := errors.SafeExecute(args[0], func() error {
		return cmd(args[1:], stdout, stderr)
	})
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		log.GetLoggerWithName("cli").Error("command failed", log.OperationKey, args[0], err)
		fmt.Fprintf(stderr, "koala-lgbm %s: %v\n", args[0], err)
		return 1
	}
	return 0
}
