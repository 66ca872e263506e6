package main

import (
	"errors"
	"fmt"
	"os"

	"gong-export-go/internal/gong"
	"gong-export-go/internal/pipeline"
)

// Exit codes for different failure modes
const (
	ExitSuccess = 0
	ExitError   = 1 // configuration or runtime error
	ExitAuth    = 2 // credentials rejected upstream
	ExitEmpty   = 3 // nothing matched the selection
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case gong.IsAuth(err):
		return ExitAuth
	case errors.Is(err, pipeline.ErrNoCalls):
		return ExitEmpty
	default:
		return ExitError
	}
}
