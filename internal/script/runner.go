// Package script runs the live executable blocks of a headless document.
//
// A headless document has no JavaScript engine. Blocks typed as Go
// (text/x-go, application/x-go) are interpreted with Yaegi in one interpreter per
// document, so declarations made by an earlier block are visible to later ones the
// way scripts of a page share a global scope. Every other block is recorded as
// skipped. No filtering of any kind is applied: a fragment is as trusted as its
// origin.
package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fragnav/internal/logging"
	"fragnav/internal/shell"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"
)

// goTypes lists the block types interpreted as Go.
var goTypes = map[string]bool{
	"text/x-go":        true,
	"application/x-go": true,
}

// ErrDisabled is recorded for Go blocks when the runner is disabled.
var ErrDisabled = errors.New("script execution disabled")

// Result records the execution of one live block.
type Result struct {
	Block   shell.ExecutableBlock
	Ran     bool
	Output  string
	Value   string
	Err     error
	Elapsed time.Duration
}

// Options configures a Runner.
type Options struct {
	Enabled bool
	Timeout time.Duration
	Logger  *zap.Logger
}

// Runner executes blocks for one document.
type Runner struct {
	enabled bool
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	interp  *interp.Interpreter
	stdout  bytes.Buffer
	results []Result
}

// NewRunner creates a Runner. The interpreter is created on the first Go block.
func NewRunner(opts Options) *Runner {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Runner{
		enabled: opts.Enabled,
		timeout: timeout,
		logger:  logging.OrNop(opts.Logger),
	}
}

// IsGo reports whether the block is interpreted by the runner.
func IsGo(b shell.ExecutableBlock) bool {
	return goTypes[b.Type()]
}

// Execute runs one live block. Non-Go blocks are recorded as skipped and return nil.
func (r *Runner) Execute(ctx context.Context, block shell.ExecutableBlock) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := Result{Block: block}
	defer func() { r.results = append(r.results, res) }()

	if !IsGo(block) {
		r.logger.Debug("skipping block without Go runtime", zap.String("type", block.Type()))
		return nil
	}
	if !r.enabled {
		res.Err = ErrDisabled
		return ErrDisabled
	}
	if src, ok := block.Attr("src"); ok {
		res.Err = fmt.Errorf("external Go source %q is not loaded", src)
		return res.Err
	}

	if err := r.ensureInterp(); err != nil {
		res.Err = err
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.stdout.Reset()
	start := time.Now()
	v, err := r.interp.EvalWithContext(ctx, block.Body)
	res.Elapsed = time.Since(start)
	res.Ran = true
	res.Output = r.stdout.String()
	if err != nil {
		res.Err = fmt.Errorf("block evaluation failed: %w", err)
		r.logger.Warn("Go block failed", zap.Error(err), zap.Duration("elapsed", res.Elapsed))
		return res.Err
	}
	if v.IsValid() && v.CanInterface() {
		res.Value = fmt.Sprint(v.Interface())
	}
	r.logger.Debug("Go block ran", zap.Duration("elapsed", res.Elapsed), zap.Int("output_bytes", len(res.Output)))
	return nil
}

func (r *Runner) ensureInterp() error {
	if r.interp != nil {
		return nil
	}
	i := interp.New(interp.Options{Stdout: &r.stdout, Stderr: &r.stdout})
	if err := i.Use(stdlib.Symbols); err != nil {
		return fmt.Errorf("failed to load stdlib: %w", err)
	}
	r.interp = i
	return nil
}

// Results returns a copy of every execution recorded so far, in order.
func (r *Runner) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Result, len(r.results))
	copy(out, r.results)
	return out
}
