package resolver

import (
	"context"

	"github.com/vmunix/fafo/internal/policy"
)

//go:generate mockgen -destination=mocks/mock_strategy.go -package=mocks github.com/vmunix/fafo/internal/resolver Strategy

// Request is what a strategy is asked to extract.
type Request struct {
	Reference string
	Quality   policy.Quality
	Region    string
}

// Stream is a strategy's answer. An empty QualityLabel is reported as the
// requested quality's label.
type Stream struct {
	URL          string
	QualityLabel string
}

// Strategy is an external extraction capability filling one chain slot.
// Extract must honor ctx cancellation; the resolver stops waiting at the
// request timeout regardless.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, req Request) (Stream, error)
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc struct {
	Label string
	Fn    func(ctx context.Context, req Request) (Stream, error)
}

func (f StrategyFunc) Name() string { return f.Label }

func (f StrategyFunc) Extract(ctx context.Context, req Request) (Stream, error) {
	return f.Fn(ctx, req)
}
