// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package textui_test

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"git.lukeshu.com/zfs-snapspace/lib/textui"
)

func TestFprintf(t *testing.T) {
	t.Parallel()
	var out strings.Builder
	textui.Fprintf(&out, "%d", 12345)
	assert.Equal(t, "12,345", out.String())
}

func TestHumanized(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "12,345", fmt.Sprint(textui.Humanized(12345)))
	assert.Equal(t, "12,345  ", fmt.Sprintf("%-8d", textui.Humanized(12345)))
	assert.Equal(t, "345,243,543", fmt.Sprintf("%d", textui.Humanized(uint64(345243543))))
}

func TestPortion(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "100% (0/0)", fmt.Sprint(textui.Portion[int]{}))
	assert.Equal(t, "0% (1/12,345)", fmt.Sprint(textui.Portion[int]{N: 1, D: 12345}))
	assert.Equal(t, "50% (3/6)", fmt.Sprint(textui.Portion[uint64]{N: 3, D: 6}))
}

func TestBytes(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		In  textui.Bytes
		Fmt string
		Exp string
	}{
		"zero":      {In: 0, Fmt: "%v", Exp: "0 B"},
		"small":     {In: 512, Fmt: "%v", Exp: "512 B"},
		"edge":      {In: 1023, Fmt: "%v", Exp: "1023 B"},
		"kibi":      {In: 1024, Fmt: "%v", Exp: "1.0 KiB"},
		"gibi":      {In: 15139759718, Fmt: "%v", Exp: "14.1 GiB"},
		"negative":  {In: -20, Fmt: "%v", Exp: "-20 B"},
		"neg-mebi":  {In: -3 * 1024 * 1024, Fmt: "%v", Exp: "-3.0 MiB"},
		"prec":      {In: 1536, Fmt: "%.2v", Exp: "1.50 KiB"},
		"width":     {In: 512, Fmt: "%8v", Exp: "   512 B"},
		"left":      {In: 512, Fmt: "%-8v", Exp: "512 B   "},
		"exact":     {In: 1536, Fmt: "%d", Exp: "1536"},
		"stringer":  {In: 2048, Fmt: "%s", Exp: "2.0 KiB"},
		"exbi":      {In: 1 << 62, Fmt: "%v", Exp: "4.0 EiB"},
		"subkibi-s": {In: 1, Fmt: "%s", Exp: "1 B"},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.Exp, fmt.Sprintf(tc.Fmt, tc.In))
		})
	}
	assert.Equal(t, "14.1 GiB", textui.Bytes(15139759718).String())
}

func TestTerminalWidthFallback(t *testing.T) {
	t.Setenv("COLUMNS", "132")
	assert.Equal(t, 132, textui.TerminalWidth(nil))

	t.Setenv("COLUMNS", "")
	assert.Equal(t, textui.DefaultTerminalWidth, textui.TerminalWidth(nil))

	// A regular file is never a terminal.
	fh, err := os.CreateTemp(t.TempDir(), "not-a-tty")
	if !assert.NoError(t, err) {
		return
	}
	defer fh.Close()
	t.Setenv("COLUMNS", "99")
	assert.Equal(t, 99, textui.TerminalWidth(fh))
}
