// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package snapchart draws an attribution matrix as a pyramid of
// `|`-separated rows: the range of every snapshot on top, one column
// per snapshot at the bottom, and the snapshot names underneath.
package snapchart

import (
	"bufio"
	"io"
	"math"
	"strings"

	"github.com/mattn/go-runewidth"

	"git.lukeshu.com/zfs-snapspace/lib/snapspace"
	"git.lukeshu.com/zfs-snapspace/lib/textui"
)

// Column is the half-open span [Start, End) of character offsets that
// a cell's text occupies within a line.
type Column struct {
	Start, End int
}

// Width returns the number of characters in the column.
func (c Column) Width() int {
	return c.End - c.Start
}

// SplitTerminalLine divides a line of the given width into numSlices
// columns, after skipping padding characters on each side.  Each
// column is preceded by a one-character separator, and the last is
// followed by one.
//
// If the line is too narrow to give every column at least one
// character, columns are given one character each and the line runs
// past width.
func SplitTerminalLine(width, numSlices, padding int) []Column {
	if numSlices <= 0 {
		return nil
	}
	frac := float64(width-numSlices-1-2*padding) / float64(numSlices)
	if frac < 1 {
		frac = 1
	}
	ret := make([]Column, numSlices)
	pos := float64(padding + 1)
	for i := range ret {
		ret[i].Start = int(math.Floor(pos))
		pos += frac
		ret[i].End = int(math.Floor(pos))
		pos++
	}
	return ret
}

// RowPadding returns how far to indent a row of k columns so that it
// sits centered over the n-column bottom row.
func RowPadding(width, n, k int) int {
	return (n - k) * width / n / 2
}

// Center pads str with spaces to exactly width display cells, with
// the odd space (if any) on the right.  A str wider than width is
// returned unchanged.
func Center(str string, width int) string {
	extra := width - runewidth.StringWidth(str)
	if extra <= 0 {
		return str
	}
	left := extra / 2
	return strings.Repeat(" ", left) + str + strings.Repeat(" ", extra-left)
}

func writeRow(w *bufio.Writer, width, padding int, cells []string) {
	cols := SplitTerminalLine(width, len(cells), padding)
	w.WriteString(strings.Repeat(" ", padding))
	for i, col := range cols {
		w.WriteByte('|')
		w.WriteString(Center(cells[i], col.Width()))
	}
	w.WriteString("|\n")
}

// Render writes the chart of the attribution matrix m for the
// snapshots names, fitted to a terminal width characters wide.
// len(names) must equal m.Len().
func Render(out io.Writer, m *snapspace.Matrix, names []string, width int) error {
	n := m.Len()
	if len(names) != n {
		panic("snapchart.Render: len(names) != m.Len()")
	}
	if n == 0 {
		return nil
	}
	w := bufio.NewWriter(out)
	for d := n - 1; d >= 0; d-- {
		k := n - d
		cells := make([]string, k)
		for s := range cells {
			cells[s] = textui.Bytes(m.Get(d, s)).String()
		}
		writeRow(w, width, RowPadding(width, n, k), cells)
	}
	writeRow(w, width, 0, names)
	return w.Flush()
}
