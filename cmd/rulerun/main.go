package main

import (
	"errors"
	"fmt"
	"os"

	runerrors "github.com/rulerun/rulerun/pkg/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		// A failed rule propagates its child's exit code verbatim.
		var execErr *runerrors.ExecutionError
		if errors.As(err, &execErr) && execErr.ExitCode > 0 {
			os.Exit(execErr.ExitCode)
		}
		os.Exit(1)
	}
}
