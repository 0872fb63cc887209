package projection

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"simindstir/internal/models"
	"simindstir/pkg/interfile"
)

// Header tags describing the raw data file
const (
	DataFileTag      = "name of data file"
	ColumnsTag       = "matrix size [1]"
	RowsTag          = "matrix size [2]"
	ProjectionsTag   = "number of projections"
	TotalImagesTag   = "total number of images"
	NumberFormatTag  = "number format"
	BytesPerPixelTag = "number of bytes per pixel"
	ByteOrderTag     = "imagedata byte order"
)

// DataFileExt is the extension of raw data files written by Write
const DataFileExt = ".s"

// Load reads a projection dataset from an interfile header (.h00 or .hs)
// and the raw 4-byte float data file it names.
func Load(headerPath string) (*Data, error) {
	h, err := interfile.Load(headerPath)
	if err != nil {
		return nil, err
	}

	shape, err := readShape(h)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", headerPath, err)
	}
	order, err := readFormat(h)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", headerPath, err)
	}

	name, ok := h.Extract(DataFileTag)
	if !ok {
		return nil, fmt.Errorf("%w: %s: %s", interfile.ErrFatalInput, headerPath, DataFileTag)
	}
	dataPath := strings.TrimSpace(name)
	if !filepath.IsAbs(dataPath) {
		dataPath = filepath.Join(filepath.Dir(headerPath), dataPath)
	}

	raw, err := os.ReadFile(dataPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: data file %s: %w", interfile.ErrFatalInput, dataPath, err)
		}
		return nil, fmt.Errorf("error reading data file: %w", err)
	}
	if len(raw) != shape.Len()*4 {
		return nil, fmt.Errorf("%w: data file %s has %d bytes, header describes %s float32 values",
			interfile.ErrFatalInput, dataPath, len(raw), shape)
	}

	values := make([]float64, shape.Len())
	for i := range values {
		values[i] = float64(math.Float32frombits(order.Uint32(raw[i*4:])))
	}

	return &Data{shape: shape, values: values, header: h}, nil
}

func readShape(h *interfile.Header) (models.Shape, error) {
	cols, err := h.Int(ColumnsTag)
	if err != nil {
		return models.Shape{}, err
	}
	rows, err := h.Int(RowsTag)
	if err != nil {
		return models.Shape{}, err
	}
	angles, err := h.Int(ProjectionsTag)
	if errors.Is(err, interfile.ErrTagNotFound) {
		angles, err = h.Int(TotalImagesTag)
	}
	if err != nil {
		return models.Shape{}, err
	}
	shape := models.Shape{Angles: angles, Rows: rows, Cols: cols}
	if angles <= 0 || rows <= 0 || cols <= 0 {
		return models.Shape{}, fmt.Errorf("%w: invalid shape %s", interfile.ErrFatalInput, shape)
	}
	return shape, nil
}

func readFormat(h *interfile.Header) (binary.ByteOrder, error) {
	if f, ok := h.Extract(NumberFormatTag); ok && !strings.Contains(strings.ToLower(f), "float") {
		return nil, fmt.Errorf("%w: unsupported number format %q", interfile.ErrFatalInput, strings.TrimSpace(f))
	}
	if n, err := h.Int(BytesPerPixelTag); err == nil && n != 4 {
		return nil, fmt.Errorf("%w: unsupported bytes per pixel %d", interfile.ErrFatalInput, n)
	}
	if o, ok := h.Extract(ByteOrderTag); ok && strings.EqualFold(strings.TrimSpace(o), "BIGENDIAN") {
		return binary.BigEndian, nil
	}
	return binary.LittleEndian, nil
}

// Write stores the dataset as headerPath plus a little-endian float32 data
// file next to it with the same stem. The written header is a copy of the
// dataset header pointing at the new data file, with its matrix sizes and
// number of projections set from the dataset shape.
func (d *Data) Write(headerPath string) error {
	dataPath := strings.TrimSuffix(headerPath, filepath.Ext(headerPath)) + DataFileExt
	if filepath.Clean(dataPath) == filepath.Clean(headerPath) {
		return fmt.Errorf("%w: header %s would be overwritten by its data file", interfile.ErrFatalInput, headerPath)
	}
	if err := os.MkdirAll(filepath.Dir(headerPath), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	h := d.header.Clone()
	setTag(h, DataFileTag, filepath.Base(dataPath))
	setTag(h, ColumnsTag, strconv.Itoa(d.shape.Cols))
	setTag(h, RowsTag, strconv.Itoa(d.shape.Rows))
	setTag(h, ProjectionsTag, strconv.Itoa(d.shape.Angles))
	h.ReplaceValue(NumberFormatTag, "float")
	h.ReplaceValue(BytesPerPixelTag, "4")
	h.ReplaceValue(ByteOrderTag, "LITTLEENDIAN")

	raw := make([]byte, len(d.values)*4)
	for i, v := range d.values {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(float32(v)))
	}
	if err := os.WriteFile(dataPath, raw, 0644); err != nil {
		return fmt.Errorf("error writing data file: %w", err)
	}
	if err := h.WriteFile(headerPath); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}
	return nil
}

// setTag replaces the value of tag, adding a "!tag := value" line before the
// end marker when the header has none
func setTag(h *interfile.Header, tag, value string) {
	if h.ReplaceValue(tag, value) {
		return
	}
	line := "!" + tag + " := " + value + "\n"
	if h.InsertBefore("END OF INTERFILE", line) == 0 {
		h.Append(line)
	}
}
