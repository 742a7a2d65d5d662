// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package textui

import (
	"os"
	"strconv"

	"golang.org/x/term"
)

// DefaultTerminalWidth is used when the output is not a terminal and
// $COLUMNS is not set.
var DefaultTerminalWidth = Tunable(80)

// TerminalWidth returns the width, in columns, of the terminal that
// f is attached to.  If f is not a terminal, it falls back to
// $COLUMNS, and then to DefaultTerminalWidth.
func TerminalWidth(f *os.File) int {
	if f != nil {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	if width, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && width > 0 {
		return width
	}
	return DefaultTerminalWidth
}
