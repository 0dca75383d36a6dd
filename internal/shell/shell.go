// Package shell defines the document handles the navigator and the notification
// manager operate on. A Document is either a headless node tree (internal/dom) or a
// live browser page (internal/browser); the core never touches either directly.
package shell

import (
	"context"
	"errors"
)

// ErrRegionNotFound is returned when a region id does not resolve in the document.
var ErrRegionNotFound = errors.New("region not found")

// Attr is a single attribute of an executable block, in source order.
type Attr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ExecutableBlock is an embedded script found in a fragment. Blocks inserted as raw
// markup are inert until they are replaced by a live copy built from this record.
type ExecutableBlock struct {
	Attrs []Attr `json:"attrs"`
	Body  string `json:"body"`
}

// Attr returns the value of the named attribute and whether it was present.
func (b ExecutableBlock) Attr(name string) (string, bool) {
	for _, a := range b.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Type returns the block's type attribute, empty when absent.
func (b ExecutableBlock) Type() string {
	t, _ := b.Attr("type")
	return t
}

// Region is a live element of the hosting document.
type Region interface {
	ID() string
	HTML(ctx context.Context) (string, error)
	SetHTML(ctx context.Context, markup string) error
	AppendHTML(ctx context.Context, markup string) error
	SetStyle(ctx context.Context, property, value string) error
	// ReplaceBlocks swaps the i-th inert executable block inside the region for a live
	// copy built from blocks[i]. The count of blocks must match the region's.
	ReplaceBlocks(ctx context.Context, blocks []ExecutableBlock) error
	Remove(ctx context.Context) error
}

// Affordance is a navigable element such as a menu entry.
type Affordance interface {
	Target() string
	Label() string
	SetCurrent(ctx context.Context, current bool) error
}

// Document is the hosting document of a shell.
type Document interface {
	// Key identifies the document for per-document registries.
	Key() string
	Region(ctx context.Context, id string) (Region, error)
	// CreateRegion appends a new element with the given id and class to the body.
	CreateRegion(ctx context.Context, id, class string) (Region, error)
	// Affordances lists elements carrying class, in document order.
	Affordances(ctx context.Context, class, activeClass string) ([]Affordance, error)
	ScrollToTop(ctx context.Context) error
}
