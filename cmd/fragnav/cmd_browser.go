package main

import (
	"context"
	"fmt"
	neturl "net/url"

	"fragnav/internal/boot"
	"fragnav/internal/browser"
	"fragnav/internal/logging"
	"fragnav/internal/site"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var showBrowser bool

var browserCmd = &cobra.Command{
	Use:   "browser [url]",
	Short: "Boot the shell in a live browser page",
	Long: `Opens the shell document (url, or the configured shell under the base URL)
in Chrome through the DevTools protocol and boots it there: navigation
affordance clicks are intercepted and swapped in as fragments, forms get the
honeypot field and submissions that fill it in are dropped. Runs until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowser,
}

func init() {
	browserCmd.Flags().BoolVar(&showBrowser, "show", false, "Show the browser window instead of running headless")
}

func runBrowser(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := signalContext()
	defer cancel()

	fetcher, err := newFetcher(cfg, logger)
	if err != nil {
		return err
	}
	url := ""
	if len(args) == 1 {
		url = args[0]
	} else if url, err = fetcher.Resolve(cfg.Site.Shell); err != nil {
		return err
	}

	bcfg := cfg.Browser
	if showBrowser {
		bcfg.Headless = false
	}
	mgr := browser.NewSessionManager(bcfg, logging.For(logger, logging.CategoryBrowser, cfg.Logging))
	defer func() {
		err = multierr.Append(err, mgr.Shutdown(context.Background()))
	}()
	if err := mgr.Start(ctx); err != nil {
		return err
	}

	page, err := mgr.Open(ctx, url)
	if err != nil {
		return err
	}
	s := boot.New(cfg, page, boot.Deps{Fetcher: fetcher, Logger: logger})
	defer s.Close()

	if n, err := page.InstallHoneypot(ctx, site.HoneypotField); err != nil {
		logger.Warn("failed to install honeypot", zap.Error(err))
	} else {
		logger.Debug("honeypot installed", zap.Int("forms", n))
	}
	onClick := func(ctx context.Context, target string) {
		_ = s.Guard("click "+target, func() error {
			s.Click(ctx, target)
			return nil
		})
	}
	if err := page.InterceptClicks(ctx, cfg.Navigator.NavClass, 0, onClick); err != nil {
		return err
	}
	onSubmit := func(ctx context.Context, form string, values neturl.Values) (send bool) {
		_ = s.Guard("submit "+form, func() error {
			send = s.Submit(ctx, form, values)
			return nil
		})
		return send
	}
	if err := page.InterceptSubmits(ctx, 0, onSubmit); err != nil {
		return err
	}
	if err := s.Run(ctx); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "shell running in session %s (%s), press Ctrl+C to stop\n",
		page.Session().ID, mgr.ControlURL())
	<-ctx.Done()
	return nil
}
