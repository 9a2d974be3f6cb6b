package main

import (
	"net/http"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/wanmail/selenium-client-factory/internal/download"
)

func newCmdFetch() *cobra.Command {
	var (
		dir  string
		opts download.Options
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the Selenium server and optional helpers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			files, err := download.Files(ctx, opts)
			if err != nil {
				return err
			}
			if err := download.DownloadAll(ctx, http.DefaultClient, files, dir); err != nil {
				return err
			}
			glog.Infof("Downloaded %d files to %q", len(files), dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "vendor", "Directory to store the downloaded files in")
	cmd.Flags().BoolVar(&opts.Latest, "latest", false, "Look up the newest Selenium server instead of the pinned one")
	cmd.Flags().BoolVar(&opts.HTMLUnit, "htmlunit", false, "Also download the newest HtmlUnit driver JAR")
	cmd.Flags().BoolVar(&opts.SauceConnect, "sauce-connect", false, "Also download the Sauce Connect tunnel")
	return cmd
}
