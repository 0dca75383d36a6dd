package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"fragnav/internal/fetch"
	"fragnav/internal/logging"

	"github.com/spf13/cobra"
)

var dataCmd = &cobra.Command{
	Use:   "data [endpoint]",
	Short: "Fetch JSON from the external API and print the result",
	Args:  cobra.ExactArgs(1),
	RunE:  runData,
}

func runData(cmd *cobra.Command, args []string) error {
	if cfg.External.APIBaseURL == "" {
		return errors.New("external.api_base_url is not configured")
	}
	ctx, cancel := signalContext()
	defer cancel()

	ext := fetch.NewExternal(cfg.External.APIBaseURL, nil, logging.For(logger, logging.CategoryFetch, cfg.Logging))
	res := ext.FetchData(ctx, args[0])

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	if !res.Success {
		return fmt.Errorf("fetch %s: %s", args[0], res.Error)
	}
	return nil
}
