// Package grid negotiates mosaic grid dimensions against an image's pixel
// size and produces the cell rectangles that exactly tile it.
package grid

import (
	"errors"
	"fmt"
	"image"
)

// ErrInvalidGridRequest reports a requested column or row count larger
// than the image dimension it is supposed to divide.
var ErrInvalidGridRequest = errors.New("grid request exceeds image dimension")

// NextDivisor returns the smallest integer >= want that evenly divides n.
// Nudging upward keeps at least the requested number of divisions while
// guaranteeing integer cell sizes; n itself always terminates the scan.
func NextDivisor(n, want int) (int, error) {
	if want < 1 || want > n {
		return 0, fmt.Errorf("%w: requested %d for dimension %d", ErrInvalidGridRequest, want, n)
	}
	for d := want; d < n; d++ {
		if n%d == 0 {
			return d, nil
		}
	}
	return n, nil
}

// Layout describes a negotiated grid: the image is split into Cols x Rows
// cells of identical integer pixel size.
type Layout struct {
	Cols       int
	Rows       int
	CellWidth  int
	CellHeight int
}

// Plan negotiates a layout for an image of width x height pixels. Column
// and row counts are adjusted independently via NextDivisor.
func Plan(width, height, cols, rows int) (Layout, error) {
	c, err := NextDivisor(width, cols)
	if err != nil {
		return Layout{}, fmt.Errorf("columns: %w", err)
	}
	r, err := NextDivisor(height, rows)
	if err != nil {
		return Layout{}, fmt.Errorf("rows: %w", err)
	}
	return Layout{
		Cols:       c,
		Rows:       r,
		CellWidth:  width / c,
		CellHeight: height / r,
	}, nil
}

// NumCells returns the total cell count.
func (l Layout) NumCells() int {
	return l.Cols * l.Rows
}

// Cells returns the cell rectangles in row-major order (row 0 left to
// right, then row 1, ...). Cell i sits at column i % Cols, row i / Cols;
// downstream index arithmetic relies on this ordering.
func (l Layout) Cells() []image.Rectangle {
	cells := make([]image.Rectangle, 0, l.NumCells())
	for y := 0; y < l.Rows; y++ {
		for x := 0; x < l.Cols; x++ {
			x0 := x * l.CellWidth
			y0 := y * l.CellHeight
			cells = append(cells, image.Rect(x0, y0, x0+l.CellWidth, y0+l.CellHeight))
		}
	}
	return cells
}
