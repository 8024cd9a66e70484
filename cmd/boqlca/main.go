package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rshade/boqlca/internal/cli"
	"github.com/rshade/boqlca/internal/config"
	"github.com/rshade/boqlca/pkg/version"
)

// Exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitConfigError = 2
)

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

func run() error {
	root := cli.NewRootCmd(version.GetVersion())
	root.SilenceErrors = true
	return root.ExecuteContext(context.Background())
}

// exitCode maps configuration problems to exitConfigError and every other
// failure to exitFailure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, config.ErrCatalogNotConfigured), errors.Is(err, config.ErrInvalidConfig):
		return exitConfigError
	default:
		return exitFailure
	}
}
