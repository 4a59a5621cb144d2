package source

import (
	"context"
	"iter"
	"time"

	"github.com/imishinist/runsum/internal/models"
)

// Source is a run database. Runs yields the runs that started at or after
// since, in start order. Errors are yielded in place and end the sequence.
type Source interface {
	Runs(ctx context.Context, since time.Time) iter.Seq2[models.Run, error]
}

// Func adapts a plain function to Source.
type Func func(ctx context.Context, since time.Time) iter.Seq2[models.Run, error]

func (f Func) Runs(ctx context.Context, since time.Time) iter.Seq2[models.Run, error] {
	return f(ctx, since)
}

// Slice is an in-memory Source.
type Slice []models.Run

func (s Slice) Runs(ctx context.Context, since time.Time) iter.Seq2[models.Run, error] {
	return Since(func(yield func(models.Run, error) bool) {
		for _, run := range s {
			if !yield(run, nil) {
				return
			}
		}
	}, since)
}

// Since drops runs that started before since. Errors pass through.
func Since(runs iter.Seq2[models.Run, error], since time.Time) iter.Seq2[models.Run, error] {
	return func(yield func(models.Run, error) bool) {
		for run, err := range runs {
			if err == nil && run.Start.Time.Before(since) {
				continue
			}
			if !yield(run, err) || err != nil {
				return
			}
		}
	}
}
