package navigator

import (
	"context"
	"fmt"
	"strings"

	"fragnav/internal/logging"
	"fragnav/internal/markup"
	"fragnav/internal/shell"

	"go.uber.org/zap"
)

// Reactivator turns the inert executable blocks of freshly swapped content into live
// ones. Markup inserted as text never runs its scripts; each one is replaced by a new
// block carrying the same attributes and body, in document order.
type Reactivator struct {
	logger *zap.Logger
}

// NewReactivator creates a Reactivator.
func NewReactivator(logger *zap.Logger) *Reactivator {
	return &Reactivator{logger: logging.OrNop(logger)}
}

// Reactivate replaces every executable block inside region and returns how many were
// replaced. Nothing is filtered: the content is as trusted as its origin.
func (r *Reactivator) Reactivate(ctx context.Context, region shell.Region) (int, error) {
	content, err := region.HTML(ctx)
	if err != nil {
		return 0, fmt.Errorf("read #%s: %w", region.ID(), err)
	}
	// Browsers hand scripts their text with line endings normalized.
	content = strings.ReplaceAll(content, "\r\n", "\n")

	blocks, err := markup.ExtractBlocks(content)
	if err != nil {
		return 0, err
	}
	if len(blocks) == 0 {
		return 0, nil
	}
	if err := region.ReplaceBlocks(ctx, blocks); err != nil {
		return 0, fmt.Errorf("reactivate #%s: %w", region.ID(), err)
	}
	r.logger.Debug("executable blocks reactivated",
		zap.String("region", region.ID()), zap.Int("count", len(blocks)))
	return len(blocks), nil
}
