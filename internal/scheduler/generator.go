package scheduler

import "context"

// Generator produces audit text from a staff activity summary. The external
// producer may be slow or fail; it is treated as a single-shot call and this
// package owns the retry policy around it.
type Generator interface {
	Generate(ctx context.Context, staffSummary string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, staffSummary string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, staffSummary string) (string, error) {
	return f(ctx, staffSummary)
}
