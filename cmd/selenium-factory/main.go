// Command selenium-factory resolves driver URIs from the command line and
// fetches the server binaries the embedded-rc: provider needs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/wanmail/selenium-client-factory/all"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "selenium-factory",
		Short:   "Resolve Selenium driver URIs",
		Version: version(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	// glog registers -v, -logtostderr and friends on the standard flag set.
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	cmd.PersistentFlags().Bool("zap-development", false, "Log decorated driver calls (log: URIs) in development format")

	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		// glog refuses to log until the standard flag set has been parsed.
		if err := flag.CommandLine.Parse(nil); err != nil {
			return err
		}
		dev, _ := c.Flags().GetBool("zap-development")
		cfg := zap.NewProductionConfig()
		if dev {
			cfg = zap.NewDevelopmentConfig()
		}
		logger, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("build logger: %v", err)
		}
		zap.ReplaceGlobals(logger)
		return nil
	}

	cmd.AddCommand(newCmdResolve())
	cmd.AddCommand(newCmdProviders())
	cmd.AddCommand(newCmdFetch())
	cmd.AddCommand(newCmdVersion())
	return cmd
}

func main() {
	root := newRootCmd()
	root.SetContext(context.Background())
	err := root.Execute()
	glog.Flush()
	zap.L().Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "selenium-factory: %v\n", err)
		os.Exit(1)
	}
}
