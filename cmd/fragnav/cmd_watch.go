package main

import (
	"context"
	"fmt"
	"path"

	"fragnav/internal/logging"
	"fragnav/internal/navigator"
	"fragnav/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Boot the shell headless and re-navigate when the current fragment changes",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, err := headlessShell(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.Run(ctx); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	show := func(ctx context.Context) {
		text, err := containerText(ctx, s, cfg)
		if err != nil {
			logger.Warn("failed to render content", zap.Error(err))
			return
		}
		fmt.Fprintf(w, "--- %s [%s]\n%s\n", s.Navigator().Location(), s.Navigator().State(), text)
	}
	show(ctx)

	onChange := func(ctx context.Context, location string) {
		current := s.Navigator().Location()
		if !sameLocation(current, location) {
			return
		}
		s.Navigator().Navigate(ctx, navigator.Request{Location: current})
		show(ctx)
	}
	watcher, err := watch.New(cfg.Site.Root, onChange, watch.Options{
		Logger: logging.For(logger, logging.CategoryWatch, cfg.Logging),
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		watcher.Stop()
		return fmt.Errorf("watch %s: %w", cfg.Site.Root, err)
	}
	defer func() {
		watcher.Stop()
		logger.Info("watcher stopped", watchFields(watcher.Stats())...)
	}()

	<-ctx.Done()
	return nil
}

func watchFields(st watch.Stats) []zap.Field {
	fields := []zap.Field{
		zap.Int("changes", st.Changes),
		zap.Int("created", st.FilesCreated),
		zap.Int("modified", st.FilesModified),
		zap.Int("deleted", st.FilesDeleted),
		zap.Int("errors", st.Errors),
	}
	if st.LastEventPath != "" {
		fields = append(fields,
			zap.String("last_path", st.LastEventPath),
			zap.String("last_type", st.LastEventType),
			zap.Time("last_at", st.LastEventTime))
	}
	return fields
}

// sameLocation compares two relative locations ignoring "./" prefixes.
func sameLocation(a, b string) bool {
	return a != "" && path.Clean(a) == path.Clean(b)
}
