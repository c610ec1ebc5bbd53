package tools

import (
	"context"
)

var (
	// NopRunner runs tools with a background context and discards status
	// reports. Useful for tests and one-off invocations.
	NopRunner = NewRunner(context.Background(), nil, func(status string) {})
)

// Runner carries the per-call environment a tool runs in: the context of the
// chat exchange, the toolbox it belongs to, and a way to surface progress to
// the transcript while a server call is in flight.
type Runner interface {
	Context() context.Context
	Toolbox() *Toolbox
	Report(status string)
}

type runner struct {
	ctx     context.Context
	toolbox *Toolbox
	report  func(status string)
}

// NewRunner returns a Runner whose status reports go to the provided function.
func NewRunner(ctx context.Context, toolbox *Toolbox, report func(status string)) Runner {
	return &runner{ctx: ctx, toolbox: toolbox, report: report}
}

func (r *runner) Context() context.Context {
	return r.ctx
}

func (r *runner) Toolbox() *Toolbox {
	return r.toolbox
}

func (r *runner) Report(status string) {
	r.report(status)
}
