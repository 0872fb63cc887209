package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"simindstir/pkg/projection"
)

// Viewer renders projections and sinograms of a projection dataset as
// grayscale images
type Viewer struct {
	data *projection.Data

	// display window; values outside it saturate
	lo float64
	hi float64
}

// NewViewer creates a viewer whose display window spans the data range
func NewViewer(data *projection.Data) *Viewer {
	v := &Viewer{data: data}
	v.SetWindow(0, 0)
	return v
}

// SetWindow sets the display window. (0, 0) selects the data range.
func (v *Viewer) SetWindow(lo, hi float64) {
	if lo == 0 && hi == 0 {
		values := v.data.Array()
		lo, hi = floats.Min(values), floats.Max(values)
	}
	v.lo, v.hi = lo, hi
}

// Window returns the display window
func (v *Viewer) Window() (float64, float64) {
	return v.lo, v.hi
}

// ExtractProjection returns projection index (1-based) as a rows x cols
// image. Indices past the end show the last projection. Index 0 and below
// count back from the end (0 is the last projection, -1 the one before),
// stopping at the first.
func (v *Viewer) ExtractProjection(index int) image.Image {
	return v.render(v.data.Projection(projectionOffset(index, v.data.Shape().Angles)))
}

// projectionOffset maps a 1-based display index to a 0-based angle
func projectionOffset(index, angles int) int {
	i := min(index, angles) - 1
	if i < 0 {
		i += angles
	}
	return max(i, 0)
}

// ExtractSinogram returns detector row (0-based) over all angles as an
// angles x cols image
func (v *Viewer) ExtractSinogram(row int) (image.Image, error) {
	shape := v.data.Shape()
	if row < 0 || row >= shape.Rows {
		return nil, fmt.Errorf("row %d outside [0, %d)", row, shape.Rows)
	}
	return v.render(v.data.Sinogram(row)), nil
}

// render maps a matrix onto a grayscale image, row i becoming image line i
func (v *Viewer) render(m mat.Matrix) *image.Gray16 {
	rows, cols := m.Dims()
	img := image.NewGray16(image.Rect(0, 0, cols, rows))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			img.SetGray16(c, r, v.gray(m.At(r, c)))
		}
	}
	return img
}

func (v *Viewer) gray(value float64) color.Gray16 {
	span := v.hi - v.lo
	if span <= 0 || math.IsNaN(value) {
		return color.Gray16{}
	}
	scaled := (value - v.lo) / span * 65535
	return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, scaled)))}
}

// SaveImage saves an image as PNG when filename ends in .png, JPEG otherwise
func SaveImage(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		err = png.Encode(file, img)
	default:
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		return fmt.Errorf("error encoding %s: %w", filename, err)
	}
	return file.Close()
}

// SaveSequence extracts and saves every projection into outputDir.
// ext selects the image format (".jpg" or ".png").
func (v *Viewer) SaveSequence(outputDir, ext string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	if ext == "" {
		ext = ".jpg"
	}

	for i := 1; i <= v.data.Shape().Angles; i++ {
		filename := filepath.Join(outputDir, fmt.Sprintf("projection_%03d%s", i, ext))
		if err := SaveImage(v.ExtractProjection(i), filename); err != nil {
			return err
		}
	}

	return nil
}
