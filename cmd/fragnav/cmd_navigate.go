package main

import (
	"fmt"

	"fragnav/internal/navigator"
	"fragnav/internal/shell"

	"github.com/spf13/cobra"
)

var navigateCmd = &cobra.Command{
	Use:   "navigate [location]",
	Short: "Boot the shell headless, navigate once and print the content",
	Long: `Boots the shell document without a browser, navigates to location (the
configured initial location when omitted) and prints the content container
as text, followed by any notifications that were raised.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNavigate,
}

func runNavigate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, err := headlessShell(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	var out navigator.Outcome
	if len(args) == 0 {
		if err := s.Run(ctx); err != nil {
			return err
		}
		out.State = s.Navigator().State()
	} else {
		out = s.Navigator().Navigate(ctx, navigator.Request{
			Location: args[0],
			Event:    shell.NewEvent("click"),
		})
	}

	text, err := containerText(ctx, s, cfg)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, text)
	for _, n := range s.Notifications().Active() {
		fmt.Fprintf(w, "[%s] %s\n", n.Severity, n.Message)
	}
	if out.State == navigator.Failed {
		if out.Err != nil {
			return fmt.Errorf("navigation to %s failed: %w", s.Navigator().Location(), out.Err)
		}
		return fmt.Errorf("navigation to %s failed", s.Navigator().Location())
	}
	return nil
}
