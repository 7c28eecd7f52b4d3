// Command repodoc scans a repository and generates its documentation with a
// language model under a fixed call budget.
//
// Usage:
//
//	repodoc [options]            generate documentation
//	repodoc analyze [options]    print the repository summary only
//
// Exit codes:
//   - 0: completed, or stopped by the call budget
//   - 1: configuration error or aborted run
//   - 2: completed with at least one failed artifact
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	app := newApp()
	app.ExitErrHandler = exitErrHandler
	if err := app.Run(os.Args); err != nil {
		os.Exit(ExitFatal)
	}
}

// exitErrHandler preserves exit codes from cli.Exit.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(ExitFatal)
}
