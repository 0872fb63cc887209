// Package projection holds SPECT projection datasets: a 3D array of counts
// (angle, row, column) together with the interfile header describing it.
package projection

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"simindstir/internal/models"
	"simindstir/pkg/interfile"
)

// Data is a projection dataset. Values are stored in angle-major order.
type Data struct {
	shape  models.Shape
	values []float64
	header *interfile.Header
}

// New creates a dataset of the given shape. values is copied and must hold
// exactly shape.Len() elements; nil values gives a zero-filled dataset.
// A nil header is replaced by an empty one.
func New(header *interfile.Header, shape models.Shape, values []float64) (*Data, error) {
	if shape.Angles <= 0 || shape.Rows <= 0 || shape.Cols <= 0 {
		return nil, fmt.Errorf("invalid projection shape %s", shape)
	}
	if header == nil {
		header = interfile.NewHeader()
	}
	d := &Data{
		shape:  shape,
		values: make([]float64, shape.Len()),
		header: header,
	}
	if values != nil {
		if err := d.Fill(values); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Shape returns the dataset dimensions
func (d *Data) Shape() models.Shape {
	return d.shape
}

// Len returns the number of elements
func (d *Data) Len() int {
	return len(d.values)
}

// Header returns the dataset header. It is owned by the dataset.
func (d *Data) Header() *interfile.Header {
	return d.header
}

// Clone returns a deep copy, header included
func (d *Data) Clone() *Data {
	values := make([]float64, len(d.values))
	copy(values, d.values)
	return &Data{shape: d.shape, values: values, header: d.header.Clone()}
}

// NewLike returns a zero-filled dataset with the same shape and a copy of
// the header
func (d *Data) NewLike() *Data {
	return &Data{shape: d.shape, values: make([]float64, len(d.values)), header: d.header.Clone()}
}

// Array returns a copy of the values
func (d *Data) Array() []float64 {
	out := make([]float64, len(d.values))
	copy(out, d.values)
	return out
}

// Fill copies values into the dataset
func (d *Data) Fill(values []float64) error {
	if len(values) != len(d.values) {
		return fmt.Errorf("fill: got %d values for shape %s (%d elements)", len(values), d.shape, len(d.values))
	}
	copy(d.values, values)
	return nil
}

// At returns the value at (angle, row, col)
func (d *Data) At(angle, row, col int) float64 {
	return d.values[d.shape.Index(angle, row, col)]
}

// Set sets the value at (angle, row, col)
func (d *Data) Set(angle, row, col int, v float64) {
	d.values[d.shape.Index(angle, row, col)] = v
}

// EnergyWindowBounds reads the energy window from the dataset header
func (d *Data) EnergyWindowBounds() (models.EnergyWindow, error) {
	return d.header.EnergyWindowBounds()
}

// Projection returns projection angle (0-based) as a rows x cols matrix
func (d *Data) Projection(angle int) *mat.Dense {
	n := d.shape.Rows * d.shape.Cols
	values := make([]float64, n)
	copy(values, d.values[angle*n:(angle+1)*n])
	return mat.NewDense(d.shape.Rows, d.shape.Cols, values)
}

// Sinogram returns detector row (0-based) over all angles as an
// angles x cols matrix
func (d *Data) Sinogram(row int) *mat.Dense {
	m := mat.NewDense(d.shape.Angles, d.shape.Cols, nil)
	for a := 0; a < d.shape.Angles; a++ {
		start := d.shape.Index(a, row, 0)
		m.SetRow(a, d.values[start:start+d.shape.Cols])
	}
	return m
}
