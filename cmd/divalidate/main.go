// Command divalidate checks the godi container wiring of a Go program.
//
//	divalidate check --project ./cmd/server
//	divalidate graph --workspace . --main example.com/app --format text
//
// check exits with status 1 when the findings fail the run, 2 on a usage or
// configuration error and 3 when the program could not be located or loaded.
package main

import (
	"errors"
	"fmt"
	"os"

	divalidator "github.com/wvanhemert/DI-Validator"
)

var version = "0.1.0-dev"

// errFailed is returned by check when the findings fail the run.
var errFailed = errors.New("dependency injection validation failed")

func main() {
	cmd := newRootCmd(os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, "divalidate:", err)
		}
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errFailed):
		return 1
	case errors.Is(err, divalidator.ErrInconclusive):
		return 3
	default:
		return 2
	}
}
