// Package offload caps how many spreadsheet encode/parse jobs run at
// once. Workbook handling is memory-heavy, so the bound is configured
// separately from GOMAXPROCS.
package offload

import (
	"context"

	"github.com/statboard/statboard/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const DefaultLimit = 4

type Params struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
}

type Gate struct {
	log *zap.Logger
	sem *semaphore.Weighted
}

func New(p Params) *Gate {
	limit := p.Cfg.ExportConcurrency
	if limit < 1 {
		limit = DefaultLimit
	}
	return NewWithLimit(p.Log, limit)
}

func NewWithLimit(log *zap.Logger, limit int64) *Gate {
	if limit < 1 {
		limit = 1
	}
	return &Gate{
		log: log.Named("offload.gate"),
		sem: semaphore.NewWeighted(limit),
	}
}

// Do runs job once a slot is free. It blocks until admitted or the
// context is done.
func (g *Gate) Do(ctx context.Context, job func() ([]byte, error)) ([]byte, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer g.sem.Release(1)
	return job()
}

// Run admits job under the same slot budget as Do, for work that does
// not yield a workbook.
func (g *Gate) Run(ctx context.Context, job func() error) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)
	return job()
}

var Module = fx.Module("offload.gate",
	fx.Provide(New),
)
