package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Exit codes
const (
	ExitSuccess     = 0
	ExitFailed      = 1
	ExitInvalidArgs = 2
	ExitCancelled   = 3
	ExitWarnings    = 4
)

var version = "dev"

func main() {
	// Optional .env next to the binary; env vars still win.
	_ = godotenv.Load()

	root := newRootCommand()
	if err := root.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.msg != "" {
				fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			}
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(ExitFailed)
	}
}

// exitError carries a specific exit code out of a command RunE.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func exitWithCode(code int, msg string) error {
	return &exitError{code: code, msg: msg}
}
