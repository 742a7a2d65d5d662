// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package zfsutil

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/datawire/dlib/dexec"
	"github.com/datawire/dlib/dlog"
)

// CLI is an Oracle that runs the zfs(8) command.
type CLI struct {
	// Path is the zfs binary to run; if it contains no slash it is
	// looked up in $PATH.
	Path string
	// Timeout bounds each invocation; 0 means no timeout.
	Timeout time.Duration
}

var _ Oracle = (*CLI)(nil)

// Check verifies that the zfs binary is present.
func (c *CLI) Check(ctx context.Context) error {
	resolved, err := dexec.LookPath(c.Path)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrToolNotFound, c.Path, err)
	}
	dlog.Debugf(ctx, "using zfs binary %q", resolved)
	return nil
}

func (c *CLI) run(ctx context.Context, args ...string) ([]byte, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	cmd := dexec.CommandContext(ctx, c.Path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// There are O(N²) invocations; dexec's per-line logging is
	// far too chatty for that.
	cmd.DisableLogging = true
	dlog.Debugf(ctx, "running %q", cmd.Args)
	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &CommandError{
			Args:   append([]string{c.Path}, args...),
			Stderr: stderr.String(),
			Err:    err,
		}
	}
	return out, nil
}

// ListDatasets implements Oracle.
func (c *CLI) ListDatasets(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, "list", "-H", "-o", "name", "-t", "filesystem,volume")
	if err != nil {
		return nil, err
	}
	return parseLines(out), nil
}

// ListSnapshots implements Oracle.
func (c *CLI) ListSnapshots(ctx context.Context, dataset string) ([]string, error) {
	out, err := c.run(ctx, "list", "-H", "-o", "name", "-t", "snapshot", "-s", "createtxg", "-d", "1", dataset)
	if err != nil {
		return nil, err
	}
	return parseSnapshotList(dataset, out), nil
}

// SpaceFreedByDeletingRange implements Oracle.
func (c *CLI) SpaceFreedByDeletingRange(ctx context.Context, dataset, start, end string) (uint64, error) {
	args := []string{"destroy", "-n", "-v", "-p", snapshotRange(dataset, start, end)}
	out, err := c.run(ctx, args...)
	if err != nil {
		return 0, err
	}
	size, err := parseReclaim(out)
	if err != nil {
		return 0, &ParseError{
			Args:   append([]string{c.Path}, args...),
			Output: string(out),
			Msg:    err.Error(),
		}
	}
	return size, nil
}

func parseLines(out []byte) []string {
	var ret []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			ret = append(ret, line)
		}
	}
	return ret
}

// parseSnapshotList turns "dataset@snap" lines into short snapshot
// names, in the order given.  Lines for other datasets are dropped.
func parseSnapshotList(dataset string, out []byte) []string {
	var ret []string
	for _, line := range parseLines(out) {
		if !strings.HasPrefix(line, dataset+"@") {
			continue
		}
		ret = append(ret, strings.TrimPrefix(line, dataset+"@"))
	}
	return ret
}

// parseReclaim extracts the byte count from the "reclaim" line of
// `zfs destroy -nvp` output:
//
//	destroy	pool/fs@a
//	destroy	pool/fs@b
//	reclaim	123456
func parseReclaim(out []byte) (uint64, error) {
	for _, line := range parseLines(out) {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] != "reclaim" {
			continue
		}
		if len(fields) != 2 {
			return 0, fmt.Errorf("malformed reclaim line")
		}
		size, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, err
		}
		return size, nil
	}
	return 0, fmt.Errorf("no reclaim line")
}
