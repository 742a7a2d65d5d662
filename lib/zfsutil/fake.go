// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package zfsutil

import (
	"context"
	"fmt"
	"sync"

	"git.lukeshu.com/zfs-snapspace/lib/maps"
)

// FakeRange identifies one range query answered by a Fake.
type FakeRange struct {
	Dataset    string
	Start, End string
}

// Fake is an in-memory Oracle, for testing.
type Fake struct {
	// Snapshots maps dataset name to snapshot names, oldest first.
	Snapshots map[string][]string
	// Sizes holds the answer to each range query.  A query for a
	// range that isn't present is an error.
	Sizes map[FakeRange]uint64
	// Errs forces a query to fail.
	Errs map[FakeRange]error

	mu    sync.Mutex
	calls map[FakeRange]int
}

var _ Oracle = (*Fake)(nil)

// ListDatasets implements Oracle.
func (f *Fake) ListDatasets(_ context.Context) ([]string, error) {
	return maps.SortedKeys(f.Snapshots), nil
}

// ListSnapshots implements Oracle.
func (f *Fake) ListSnapshots(_ context.Context, dataset string) ([]string, error) {
	snaps, ok := f.Snapshots[dataset]
	if !ok {
		return nil, &CommandError{
			Args: []string{"zfs", "list", dataset},
			Err:  fmt.Errorf("dataset does not exist"),
		}
	}
	return append([]string(nil), snaps...), nil
}

// SpaceFreedByDeletingRange implements Oracle.
func (f *Fake) SpaceFreedByDeletingRange(ctx context.Context, dataset, start, end string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	key := FakeRange{Dataset: dataset, Start: start, End: end}
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[FakeRange]int)
	}
	f.calls[key]++
	f.mu.Unlock()

	if err, ok := f.Errs[key]; ok {
		return 0, err
	}
	size, ok := f.Sizes[key]
	if !ok {
		return 0, &CommandError{
			Args: []string{"zfs", "destroy", "-nvp", snapshotRange(dataset, start, end)},
			Err:  fmt.Errorf("no such range"),
		}
	}
	return size, nil
}

// Calls returns how many times the given range was queried.
func (f *Fake) Calls(dataset, start, end string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[FakeRange{Dataset: dataset, Start: start, End: end}]
}

// TotalCalls returns how many range queries have been made.
func (f *Fake) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}
