// Command fragnav boots a fragment-navigated site shell headless, in a browser, or
// as an interactive terminal shell, and serves or watches the site it runs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fragnav/internal/config"
	"fragnav/internal/logging"
	"fragnav/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "fragnav",
	Short: "fragnav - fragment navigation shell",
	Long: `fragnav loads a site shell document, swaps page fragments into its content
container on navigation, and raises transient notifications.

Run without arguments to start the interactive terminal shell.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", configPath, err)
		}
		cfg = loaded

		// The terminal shell owns the screen; its log goes nowhere unless verbose.
		if cmd == cmd.Root() && !verbose {
			logger = zap.NewNop()
			return nil
		}
		logger, err = logging.Build(cfg.Logging, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runInteractive,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "fragnav.yaml", "Config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(navigateCmd)
	rootCmd.AddCommand(browserCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(dataCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runInteractive starts the terminal shell over a headless document.
func runInteractive(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, err := headlessShell(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	model := tui.New(ctx, s, cfg, logging.For(logger, logging.CategoryTUI, cfg.Logging))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal shell: %w", err)
	}
	return nil
}
