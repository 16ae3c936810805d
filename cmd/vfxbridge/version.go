package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/vfxbridge"
	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of vfxbridge",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vfxbridge version %s (envelope %s)\n", strings.TrimSpace(vfxbridge.Version), domain.Version)
		},
	}
}
