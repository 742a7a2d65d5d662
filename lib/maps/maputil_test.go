// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package maps_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"git.lukeshu.com/zfs-snapspace/lib/maps"
)

func TestSortedKeys(t *testing.T) {
	t.Parallel()
	m := map[string]int{"tank/b": 1, "tank": 2, "tank/a": 3}
	assert.Equal(t, []string{"tank", "tank/a", "tank/b"}, maps.SortedKeys(m))
	assert.Empty(t, maps.SortedKeys(map[string]int(nil)))
}
