package models

import "fmt"

// EnergyWindow is an acquisition energy window in keV
type EnergyWindow struct {
	// Lower is the lower threshold of the window
	Lower float64

	// Upper is the upper threshold of the window
	Upper float64
}

// Width returns Upper - Lower. No validation is applied, an inverted
// window yields a negative width.
func (w EnergyWindow) Width() float64 {
	return w.Upper - w.Lower
}

func (w EnergyWindow) String() string {
	return fmt.Sprintf("[%g, %g] keV", w.Lower, w.Upper)
}

// Shape describes the layout of a projection dataset stored as a 1D array
// in angle-major order (angle, row, column)
type Shape struct {
	// Angles is the number of projection angles
	Angles int

	// Rows is the number of detector rows (matrix size [2])
	Rows int

	// Cols is the number of detector columns (matrix size [1])
	Cols int
}

// Len returns the number of elements described by the shape
func (s Shape) Len() int {
	return s.Angles * s.Rows * s.Cols
}

// Index returns the flat index of element (angle, row, col)
func (s Shape) Index(angle, row, col int) int {
	return angle*s.Rows*s.Cols + row*s.Cols + col
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Angles, s.Rows, s.Cols)
}
