package main

import (
	"fmt"

	"github.com/spf13/cobra"

	factory "github.com/wanmail/selenium-client-factory"
)

func newCmdProviders() *cobra.Command {
	return &cobra.Command{
		Use:   "providers [uri...]",
		Short: "List registered providers, or which provider claims each URI",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, name := range factory.DefaultRegistry.Names() {
					fmt.Fprintln(out, name)
				}
				return nil
			}
			for _, uri := range args {
				name, ok := factory.DefaultRegistry.Claimant(uri)
				if !ok {
					name = "-"
				}
				fmt.Fprintf(out, "%s\t%s\n", uri, name)
			}
			return nil
		},
	}
}
