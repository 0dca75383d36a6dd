package main

import (
	"fragnav/internal/logging"
	"fragnav/internal/site"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site directory over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config)")
	serveCmd.Flags().String("root", "", "Site directory (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Site.Addr = addr
	}
	if root, _ := cmd.Flags().GetString("root"); root != "" {
		cfg.Site.Root = root
	}

	ctx, cancel := signalContext()
	defer cancel()

	return site.New(cfg, logging.For(logger, logging.CategorySite, cfg.Logging)).ListenAndServe(ctx)
}
