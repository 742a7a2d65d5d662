// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package zfsutil

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
)

type rangeKey struct {
	dataset    string
	start, end string
}

// CachedOracle memoizes the range queries of another Oracle.  Listing
// calls are passed straight through.  Failed queries are not cached.
type CachedOracle struct {
	Oracle
	inner *lru.ARCCache
}

var _ Oracle = (*CachedOracle)(nil)

// Cached wraps inner so that repeated range queries are answered
// from an ARC cache holding up to size entries.
func Cached(inner Oracle, size int) (*CachedOracle, error) {
	cache, err := lru.NewARC(size)
	if err != nil {
		return nil, err
	}
	return &CachedOracle{
		Oracle: inner,
		inner:  cache,
	}, nil
}

// SpaceFreedByDeletingRange implements Oracle.
func (c *CachedOracle) SpaceFreedByDeletingRange(ctx context.Context, dataset, start, end string) (uint64, error) {
	key := rangeKey{dataset: dataset, start: start, end: end}
	if val, ok := c.inner.Get(key); ok {
		//nolint:forcetypeassert // Typed wrapper around untyped lib.
		return val.(uint64), nil
	}
	size, err := c.Oracle.SpaceFreedByDeletingRange(ctx, dataset, start, end)
	if err != nil {
		return 0, err
	}
	c.inner.Add(key, size)
	return size, nil
}

// Len returns the number of cached answers.
func (c *CachedOracle) Len() int {
	return c.inner.Len()
}
