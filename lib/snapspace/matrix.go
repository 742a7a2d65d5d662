// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package snapspace attributes the space held by a chain of ZFS
// snapshots to the individual snapshots and to each contiguous
// combination of them.
package snapspace

import (
	"encoding/json"
	"fmt"
)

// Range is an inclusive span of snapshot indexes.
type Range struct {
	Start, End int
}

// Dist returns the distance of the range from the diagonal; 0 for a
// single snapshot.
func (r Range) Dist() int {
	return r.End - r.Start
}

func (r Range) String() string {
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

// Matrix is a triangular matrix of byte counts, indexed by distance
// d and start index s, with one cell for every range (s, s+d) of an
// N-snapshot chain.  Row d holds N-d cells.
//
// Cells are signed because attributed values may legitimately come
// out negative when the storage layer reports inconsistent sizes.
type Matrix struct {
	rows [][]int64
}

var (
	_ json.Marshaler   = (*Matrix)(nil)
	_ json.Unmarshaler = (*Matrix)(nil)
)

// NewMatrix returns a zeroed matrix for a chain of n snapshots.
func NewMatrix(n int) *Matrix {
	if n < 0 {
		panic(fmt.Errorf("snapspace.NewMatrix: negative size %d", n))
	}
	m := &Matrix{
		rows: make([][]int64, n),
	}
	for d := range m.rows {
		m.rows[d] = make([]int64, n-d)
	}
	return m
}

// Len returns the number of snapshots in the chain that the matrix
// describes.
func (m *Matrix) Len() int {
	return len(m.rows)
}

func (m *Matrix) check(d, s int) {
	if d < 0 || s < 0 || d >= len(m.rows) || s >= len(m.rows[d]) {
		panic(fmt.Errorf("snapspace.Matrix: cell (d=%d, s=%d) out of range for N=%d", d, s, len(m.rows)))
	}
}

// Get returns the cell for the range (s, s+d).  It panics if s+d is
// not inside the chain.
func (m *Matrix) Get(d, s int) int64 {
	m.check(d, s)
	return m.rows[d][s]
}

// Set sets the cell for the range (s, s+d).
func (m *Matrix) Set(d, s int, v int64) {
	m.check(d, s)
	m.rows[d][s] = v
}

// Sub subtracts v from the cell for the range (s, s+d).
func (m *Matrix) Sub(d, s int, v int64) {
	m.check(d, s)
	m.rows[d][s] -= v
}

// GetRange is Get addressed by a Range.
func (m *Matrix) GetRange(r Range) int64 {
	return m.Get(r.Dist(), r.Start)
}

// Row returns a copy of row d.
func (m *Matrix) Row(d int) []int64 {
	m.check(d, 0)
	ret := make([]int64, len(m.rows[d]))
	copy(ret, m.rows[d])
	return ret
}

// Clone returns a deep copy of the matrix.
func (m *Matrix) Clone() *Matrix {
	ret := &Matrix{
		rows: make([][]int64, len(m.rows)),
	}
	for d := range m.rows {
		ret.rows[d] = make([]int64, len(m.rows[d]))
		copy(ret.rows[d], m.rows[d])
	}
	return ret
}

// Total returns the sum of every cell.
func (m *Matrix) Total() int64 {
	var sum int64
	for _, row := range m.rows {
		for _, v := range row {
			sum += v
		}
	}
	return sum
}

// Equal reports whether two matrices have the same shape and
// contents.
func (m *Matrix) Equal(o *Matrix) bool {
	if len(m.rows) != len(o.rows) {
		return false
	}
	for d := range m.rows {
		for s := range m.rows[d] {
			if m.rows[d][s] != o.rows[d][s] {
				return false
			}
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler; the matrix is encoded as a
// jagged array indexed [d][s].
func (m *Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.rows)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Matrix) UnmarshalJSON(dat []byte) error {
	var rows [][]int64
	if err := json.Unmarshal(dat, &rows); err != nil {
		return err
	}
	for d, row := range rows {
		if len(row) != len(rows)-d {
			return fmt.Errorf("snapspace.Matrix: row %d has %d cells, expected %d", d, len(row), len(rows)-d)
		}
	}
	m.rows = rows
	return nil
}
