package batch

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionode-cloud/ERP-Cell/core"
)

func key(i int) string { return "s" + strconv.Itoa(i) }

func TestRun(t *testing.T) {
	errNotFound := core.NewNotFoundError("record not found")

	results := Run(context.Background(), 5, 2, key, func(ctx context.Context, i int) (int, error) {
		switch i {
		case 1:
			return 0, errors.Wrap(ErrSkip, "student missing")
		case 2:
			return 0, errNotFound
		case 3:
			return 0, errors.New("boom")
		}
		return i * 10, nil
	})

	require.Len(t, results, 5)
	tests := []struct {
		idx        int
		wantStatus Status
		wantMsg    string
	}{
		{idx: 0, wantStatus: StatusOK},
		{idx: 1, wantStatus: StatusSkipped, wantMsg: "skipped"},
		{idx: 2, wantStatus: StatusSkipped, wantMsg: "record not found"},
		{idx: 3, wantStatus: StatusFailed, wantMsg: "boom"},
		{idx: 4, wantStatus: StatusOK},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("row %d", tt.idx), func(t *testing.T) {
			res := results[tt.idx]
			assert.Equal(t, tt.idx, res.Index)
			assert.Equal(t, key(tt.idx), res.StudentID)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantMsg, res.Message)
		})
	}

	assert.Equal(t, []int{0, 40}, Records(results))
	assert.Equal(t, Summary{Total: 5, OK: 2, Skipped: 2, Failed: 1}, Summarize(results))
}

func TestRunRespectsLimit(t *testing.T) {
	var inFlight, maxInFlight int32
	limit := 3

	results := Run(context.Background(), 20, limit, key, func(ctx context.Context, i int) (int, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			prev := atomic.LoadInt32(&maxInFlight)
			if cur <= prev || atomic.CompareAndSwapInt32(&maxInFlight, prev, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return i, nil
	})

	assert.Len(t, Records(results), 20)
	assert.LessOrEqual(t, int(atomic.LoadInt32(&maxInFlight)), limit)
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	results := Run(ctx, 3, 1, key, func(ctx context.Context, i int) (int, error) {
		atomic.AddInt32(&calls, 1)
		return i, nil
	})

	assert.Zero(t, atomic.LoadInt32(&calls))
	assert.Equal(t, Summary{Total: 3, Failed: 3}, Summarize(results))
}

func TestRunEmpty(t *testing.T) {
	results := Run(context.Background(), 0, 4, key, func(ctx context.Context, i int) (int, error) { return i, nil })
	assert.Empty(t, results)
	assert.Empty(t, Records(results))
}
