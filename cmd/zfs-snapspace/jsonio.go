// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"git.lukeshu.com/go/lowmemjson"
	"github.com/datawire/dlib/dlog"

	"git.lukeshu.com/zfs-snapspace/lib/textui"
)

// readStats is how far into a JSON file the decoder has got.  Size is
// 0 when reading from a pipe.
type readStats struct {
	Read, Size int64
}

func (s readStats) String() string {
	if s.Size <= 0 {
		return textui.Sprintf("read %v", textui.Bytes(s.Read))
	}
	return textui.Sprintf("read %v of %v", textui.Bytes(s.Read), textui.Bytes(s.Size))
}

// progressReader is the io.RuneScanner that lowmemjson decodes from;
// it reports progress and stops early if the context is canceled.
type progressReader struct {
	ctx      context.Context //nolint:containedctx // For detecting shutdown from methods
	in       *bufio.Reader
	stats    readStats
	progress *textui.Progress[readStats]
	unread   int
}

func (pr *progressReader) ReadRune() (r rune, size int, err error) {
	if err := pr.ctx.Err(); err != nil {
		return 0, 0, err
	}
	r, size, err = pr.in.ReadRune()
	if pr.unread > 0 {
		pr.unread--
		return r, size, err
	}
	pr.stats.Read += int64(size)
	pr.progress.Set(pr.stats)
	return r, size, err
}

func (pr *progressReader) UnreadRune() error {
	if err := pr.in.UnreadRune(); err != nil {
		return err
	}
	pr.unread++
	return nil
}

// readJSONFile decodes the single JSON value in filename, or in stdin
// if filename is "-".
func readJSONFile[T any](ctx context.Context, stdin io.Reader, filename string) (T, error) {
	var ret T
	ctx = dlog.WithField(ctx, "snapspace.read-json-file", filename)

	var (
		src  io.Reader
		size int64
	)
	if filename == "-" {
		src = stdin
	} else {
		fh, err := os.Open(filename)
		if err != nil {
			return ret, err
		}
		defer func() {
			_ = fh.Close()
		}()
		if fi, err := fh.Stat(); err == nil {
			size = fi.Size()
		}
		src = fh
	}

	pr := &progressReader{
		ctx:      ctx,
		in:       bufio.NewReader(src),
		stats:    readStats{Size: size},
		progress: textui.NewProgress[readStats](ctx, dlog.LogLevelInfo, textui.Tunable(1*time.Second)),
	}
	defer pr.progress.Done()

	if err := lowmemjson.NewDecoder(pr).DecodeThenEOF(&ret); err != nil {
		var zero T
		return zero, err
	}
	return ret, nil
}

// writeJSON encodes obj to w, re-encoded according to cfg.
func writeJSON(w io.Writer, obj any, cfg lowmemjson.ReEncoderConfig) (err error) {
	buffer := bufio.NewWriter(w)
	defer func() {
		if _err := buffer.Flush(); err == nil && _err != nil {
			err = _err
		}
	}()
	return lowmemjson.NewEncoder(lowmemjson.NewReEncoder(buffer, cfg)).Encode(obj)
}
