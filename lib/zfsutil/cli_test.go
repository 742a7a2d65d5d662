// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package zfsutil

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/datawire/dlib/dlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.lukeshu.com/zfs-snapspace/lib/textui"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	return dlog.WithLogger(context.Background(), textui.NewLogger(io.Discard, dlog.LogLevelTrace))
}

// stubZFS writes a shell script that imitates the subset of zfs(8)
// that CLI uses, and returns its path.
func stubZFS(t *testing.T) string {
	t.Helper()
	script := `#!/bin/sh
case "$*" in
"list -H -o name -t filesystem,volume")
	printf 'tank\ntank/home\ntank/data\n'
	;;
"list -H -o name -t snapshot -s createtxg -d 1 tank/data")
	printf 'tank/data@a\ntank/data@b\ntank/other@x\ntank/data@c\n'
	;;
"destroy -n -v -p tank/data@a")
	printf 'destroy\ttank/data@a\nreclaim\t100\n'
	;;
"destroy -n -v -p tank/data@a%c")
	printf 'destroy\ttank/data@a\ndestroy\ttank/data@b\ndestroy\ttank/data@c\nreclaim\t200\n'
	;;
"destroy -n -v -p tank/data@b")
	printf 'destroy\ttank/data@b\nreclaim\tlots\n'
	;;
"destroy -n -v -p tank/data@slow")
	exec sleep 5
	;;
*)
	echo "cannot open '$*': dataset does not exist" >&2
	exit 1
	;;
esac
`
	path := filepath.Join(t.TempDir(), "zfs")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755)) //nolint:gosec // It needs to be executable.
	return path
}

func TestParseReclaim(t *testing.T) {
	t.Parallel()
	size, err := parseReclaim([]byte("destroy\tpool/fs@a\ndestroy\tpool/fs@b\nreclaim\t123456\n"))
	assert.NoError(t, err)
	assert.Equal(t, uint64(123456), size)

	size, err = parseReclaim([]byte("reclaim 0\n"))
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), size)

	_, err = parseReclaim([]byte("destroy\tpool/fs@a\n"))
	assert.EqualError(t, err, "no reclaim line")

	_, err = parseReclaim([]byte("reclaim\t12\t34\n"))
	assert.EqualError(t, err, "malformed reclaim line")

	_, err = parseReclaim([]byte("reclaim\t-5\n"))
	assert.Error(t, err)
}

func TestParseSnapshotList(t *testing.T) {
	t.Parallel()
	assert.Equal(t,
		[]string{"daily-1", "daily-2"},
		parseSnapshotList("tank/fs", []byte("tank/fs@daily-1\ntank/fs/child@x\n\ntank/fs@daily-2\n")))
	assert.Nil(t, parseSnapshotList("tank/fs", []byte("")))
}

func TestSnapshotRange(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "tank/fs@a", snapshotRange("tank/fs", "a", "a"))
	assert.Equal(t, "tank/fs@a%c", snapshotRange("tank/fs", "a", "c"))
}

// The tests that run the stub are not parallel; exec'ing a file
// while another goroutine might still have it open for writing fails
// with ETXTBSY.

func TestCLI(t *testing.T) {
	ctx := testContext(t)
	cli := &CLI{Path: stubZFS(t)}

	require.NoError(t, cli.Check(ctx))

	datasets, err := cli.ListDatasets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tank", "tank/home", "tank/data"}, datasets)

	snaps, err := cli.ListSnapshots(ctx, "tank/data")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, snaps)

	size, err := cli.SpaceFreedByDeletingRange(ctx, "tank/data", "a", "a")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), size)

	size, err = cli.SpaceFreedByDeletingRange(ctx, "tank/data", "a", "c")
	require.NoError(t, err)
	assert.Equal(t, uint64(200), size)
}

func TestCLIErrors(t *testing.T) {
	ctx := testContext(t)
	cli := &CLI{Path: stubZFS(t)}

	_, err := cli.SpaceFreedByDeletingRange(ctx, "tank/data", "b", "b")
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr), "%v", err)
	assert.Equal(t, "destroy\ttank/data@b\nreclaim\tlots\n", parseErr.Output)

	_, err = cli.ListSnapshots(ctx, "tank/nope")
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr), "%v", err)
	assert.Contains(t, cmdErr.Stderr, "dataset does not exist")
	assert.Contains(t, err.Error(), "dataset does not exist")
}

func TestCLITimeout(t *testing.T) {
	ctx := testContext(t)
	cli := &CLI{Path: stubZFS(t), Timeout: 100 * time.Millisecond}
	_, err := cli.SpaceFreedByDeletingRange(ctx, "tank/data", "slow", "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCLICheckMissing(t *testing.T) {
	t.Parallel()
	cli := &CLI{Path: filepath.Join(t.TempDir(), "no-such-zfs")}
	err := cli.Check(testContext(t))
	assert.ErrorIs(t, err, ErrToolNotFound)
}
