package main

import (
	"fmt"
	"sort"

	"github.com/aretw0/vfxbridge"
	"github.com/spf13/cobra"
)

func newActionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List the available actions and aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := vfxbridge.New()
			out := cmd.OutOrStdout()
			for _, name := range b.Actions() {
				fmt.Fprintln(out, name)
			}

			aliases := b.Aliases()
			names := make([]string, 0, len(aliases))
			for alias := range aliases {
				names = append(names, alias)
			}
			sort.Strings(names)
			fmt.Fprintln(out)
			for _, alias := range names {
				fmt.Fprintf(out, "%s -> %s\n", alias, aliases[alias])
			}
			return nil
		},
	}
}
