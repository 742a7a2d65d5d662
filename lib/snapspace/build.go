// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package snapspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"

	"git.lukeshu.com/zfs-snapspace/lib/textui"
)

// ErrNoSnapshots is returned when asked to build a matrix for an
// empty snapshot chain.
var ErrNoSnapshots = errors.New("dataset has no snapshots")

// RangeOracle reports how many bytes deleting the snapshots from
// start through end (inclusive) would free.  It must not modify
// anything.
type RangeOracle interface {
	SpaceFreedByDeletingRange(ctx context.Context, dataset, start, end string) (uint64, error)
}

type BuildConfig struct {
	// Jobs is the number of oracle queries to have in flight at
	// once.  Values < 1 are treated as 1.
	Jobs int
	// ProgressInterval is how often to log progress.
	ProgressInterval time.Duration
}

var DefaultProgressInterval = textui.Tunable(1 * time.Second)

type buildStats struct {
	textui.Portion[int]
}

func (s buildStats) String() string {
	return textui.Sprintf("queried ranges: %v", s.Portion)
}

// BuildRawMatrix asks the oracle about every one of the N(N+1)/2
// contiguous ranges of the snapshot chain, and returns the raw
// matrix of answers.  If any query fails, the whole build fails.
func BuildRawMatrix(ctx context.Context, oracle RangeOracle, dataset string, names []string, cfg BuildConfig) (*Matrix, error) {
	n := len(names)
	if n == 0 {
		return nil, ErrNoSnapshots
	}
	jobs := cfg.Jobs
	if jobs < 1 {
		jobs = 1
	}
	interval := cfg.ProgressInterval
	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	ctx = dlog.WithField(ctx, "snapspace.step", "query")
	m := NewMatrix(n)

	var (
		progressMu sync.Mutex
		stats      = buildStats{Portion: textui.Portion[int]{D: n * (n + 1) / 2}}
	)
	progressWriter := textui.NewProgress[buildStats](ctx, dlog.LogLevelInfo, interval)
	progressWriter.Set(stats)
	defer progressWriter.Done()

	// dgroup.Group.Wait aggregates every goroutine's error; keep
	// the first one, since the rest are usually just the resulting
	// cancellation.
	var (
		errMu    sync.Mutex
		firstErr error
	)
	fail := func(err error) error {
		errMu.Lock()
		defer errMu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
		return err
	}

	queue := make(chan Range)
	grp := dgroup.NewGroup(ctx, dgroup.GroupConfig{})
	grp.Go("enqueue", func(ctx context.Context) error {
		defer close(queue)
		for start := 0; start < n; start++ {
			for end := start; end < n; end++ {
				select {
				case queue <- Range{Start: start, End: end}:
				case <-ctx.Done():
					return fail(ctx.Err())
				}
			}
		}
		return nil
	})
	for i := 0; i < jobs; i++ {
		grp.Go(fmt.Sprintf("worker-%d", i), func(ctx context.Context) error {
			for r := range queue {
				ctx := dlog.WithField(ctx, "snapspace.range", r)
				size, err := oracle.SpaceFreedByDeletingRange(ctx, dataset, names[r.Start], names[r.End])
				if err != nil {
					return fail(fmt.Errorf("querying range %s..%s: %w", names[r.Start], names[r.End], err))
				}
				dlog.Tracef(ctx, "%s..%s frees %d bytes", names[r.Start], names[r.End], size)
				// Each worker owns the cells of the ranges it
				// pulled off of the queue; no two workers
				// touch the same cell.
				m.Set(r.Dist(), r.Start, int64(size))

				progressMu.Lock()
				stats.N++
				progressWriter.Set(stats)
				progressMu.Unlock()
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, err
	}
	return m, nil
}
