// Package batch fans independent row operations out with a concurrency cap and
// reports one Result per row, in input order.
package batch

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ionode-cloud/ERP-Cell/core"
)

// Status of a single row.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped" // target row does not exist
	StatusFailed  Status = "failed"  // storage or validation error
)

// ErrSkip makes a row Skipped instead of Failed.
var ErrSkip = errors.New("skipped")

// Result is the outcome of one row. Record holds the persisted row when Status is StatusOK.
type Result[T any] struct {
	Index     int    `json:"index"`
	StudentID string `json:"studentId"`
	Status    Status `json:"status"`
	Message   string `json:"message,omitempty"`
	Record    *T     `json:"-"`
}

// Summary counts results per status.
type Summary struct {
	Total   int `json:"total"`
	OK      int `json:"ok"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Task processes row i. Returning ErrSkip (possibly wrapped) or a core.NotFoundError marks the row skipped.
type Task[T any] func(ctx context.Context, i int) (T, error)

// Run executes task for rows 0..n-1 with at most limit in flight and waits for all of them.
// Row failures never cancel siblings; only ctx cancellation stops rows that have not started.
func Run[T any](ctx context.Context, n, limit int, key func(i int) string, task Task[T]) []Result[T] {
	results := make([]Result[T], n)
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			res := Result[T]{Index: i, StudentID: key(i)}
			if err := ctx.Err(); err != nil {
				res.Status = StatusFailed
				res.Message = err.Error()
				results[i] = res
				return nil
			}

			rec, err := task(ctx, i)
			switch {
			case err == nil:
				res.Status = StatusOK
				res.Record = &rec
			case errors.Cause(err) == ErrSkip || core.IsNotFound(err):
				res.Status = StatusSkipped
				res.Message = errors.Cause(err).Error()
			default:
				res.Status = StatusFailed
				res.Message = err.Error()
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Records returns the persisted rows of successful results, in input order.
func Records[T any](results []Result[T]) []T {
	recs := make([]T, 0, len(results))
	for _, res := range results {
		if res.Status == StatusOK && res.Record != nil {
			recs = append(recs, *res.Record)
		}
	}
	return recs
}

func Summarize[T any](results []Result[T]) Summary {
	sum := Summary{Total: len(results)}
	for _, res := range results {
		switch res.Status {
		case StatusOK:
			sum.OK++
		case StatusSkipped:
			sum.Skipped++
		case StatusFailed:
			sum.Failed++
		}
	}
	return sum
}
