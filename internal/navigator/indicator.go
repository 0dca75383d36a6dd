package navigator

import (
	"context"
	"fmt"

	"fragnav/internal/logging"
	"fragnav/internal/shell"

	"go.uber.org/zap"
)

// Indicator keeps the "current" mark of the navigation menu in step with the
// displayed content.
type Indicator struct {
	doc         shell.Document
	navClass    string
	activeClass string
	logger      *zap.Logger
}

// NewIndicator creates an Indicator over the affordances carrying navClass.
func NewIndicator(doc shell.Document, navClass, activeClass string, logger *zap.Logger) *Indicator {
	return &Indicator{
		doc:         doc,
		navClass:    navClass,
		activeClass: activeClass,
		logger:      logging.OrNop(logger),
	}
}

// SetActive clears the mark from every affordance, then marks the first one whose
// target equals location exactly. It reports whether an affordance was marked.
func (i *Indicator) SetActive(ctx context.Context, location string) (bool, error) {
	links, err := i.doc.Affordances(ctx, i.navClass, i.activeClass)
	if err != nil {
		return false, fmt.Errorf("list affordances: %w", err)
	}
	for _, l := range links {
		if err := l.SetCurrent(ctx, false); err != nil {
			return false, fmt.Errorf("clear %q: %w", l.Target(), err)
		}
	}
	for _, l := range links {
		if l.Target() != location {
			continue
		}
		if err := l.SetCurrent(ctx, true); err != nil {
			return false, fmt.Errorf("mark %q: %w", location, err)
		}
		return true, nil
	}
	i.logger.Debug("no affordance targets location", zap.String("location", location))
	return false, nil
}
