package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/vfxbridge/internal/cli"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var failed cli.ErrActionFailed
		if !errors.As(err, &failed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
