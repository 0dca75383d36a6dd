package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"fragnav/internal/boot"
	"fragnav/internal/config"
	"fragnav/internal/dom"
	"fragnav/internal/fetch"
	"fragnav/internal/logging"
	"fragnav/internal/script"
	"fragnav/internal/site"

	"go.uber.org/zap"
)

func newFetcher(cfg *config.Config, logger *zap.Logger) (*fetch.Fetcher, error) {
	return fetch.New(fetch.Options{
		BaseURL:      cfg.Site.BaseURL,
		UserAgent:    cfg.Fetch.UserAgent,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		Logger:       logging.For(logger, logging.CategoryFetch, cfg.Logging),
	})
}

// shellMarkup reads the shell document from the site root, or fetches it from the
// base URL when it is not on disk.
func shellMarkup(ctx context.Context, cfg *config.Config, fetcher *fetch.Fetcher) (string, error) {
	data, err := os.ReadFile(cfg.ShellPath())
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read shell: %w", err)
	}
	markup, ferr := fetcher.Fetch(ctx, cfg.Site.Shell)
	if ferr != nil {
		return "", fmt.Errorf("shell %s not on disk and not fetchable: %w", cfg.ShellPath(), ferr)
	}
	return markup, nil
}

// headlessShell parses the shell document, guards its forms with the honeypot and
// wires it. The boot sequence has not run yet.
func headlessShell(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*boot.Shell, error) {
	fetcher, err := newFetcher(cfg, logger)
	if err != nil {
		return nil, err
	}
	markup, err := shellMarkup(ctx, cfg, fetcher)
	if err != nil {
		return nil, err
	}

	runner := script.NewRunner(script.Options{
		Enabled: cfg.Scripts.Enabled,
		Timeout: cfg.GetScriptTimeout(),
		Logger:  logging.For(logger, logging.CategoryScript, cfg.Logging),
	})
	doc, err := dom.Parse(markup, dom.Options{
		Executor: runner,
		Logger:   logging.For(logger, logging.CategoryBoot, cfg.Logging),
	})
	if err != nil {
		return nil, fmt.Errorf("parse shell: %w", err)
	}
	if n, err := site.InstallHoneypot(doc); err != nil {
		logger.Warn("failed to install honeypot", zap.Error(err))
	} else if n > 0 {
		logger.Debug("honeypot installed", zap.Int("forms", n))
	}
	return boot.New(cfg, doc, boot.Deps{Fetcher: fetcher, Logger: logger}), nil
}

// containerText renders the content container of s as text.
func containerText(ctx context.Context, s *boot.Shell, cfg *config.Config) (string, error) {
	region, err := s.Document().Region(ctx, cfg.Navigator.ContainerID)
	if err != nil {
		return "", err
	}
	markup, err := region.HTML(ctx)
	if err != nil {
		return "", err
	}
	return dom.Text(markup), nil
}
