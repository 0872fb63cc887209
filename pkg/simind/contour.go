package simind

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"simindstir/pkg/interfile"
)

// Field separators of a SIMIND contour file line
const (
	contourFieldSep  = "      "
	contourRadiusSep = "  "
)

// ParseContour reads one radius per line from a SIMIND non-circular orbit
// contour file and multiplies it by scale (cm to mm for 10). The radius is
// the first two-space separated token of the second six-space separated
// field. Blank lines are skipped.
func ParseContour(r io.Reader, scale float64) ([]float64, error) {
	var radii []float64
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, contourFieldSep)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: contour line %d: no radius field in %q", interfile.ErrFatalInput, lineNo, line)
		}
		token := strings.Split(fields[1], contourRadiusSep)[0]
		r, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: contour line %d: %w", interfile.ErrFatalInput, lineNo, err)
		}
		radii = append(radii, r*scale)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading contour: %w", err)
	}
	return radii, nil
}

// ReadContour parses the contour file at path
func ReadContour(path string, scale float64) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: contour file %s: %w", interfile.ErrFatalInput, path, err)
		}
		return nil, fmt.Errorf("error opening contour file: %w", err)
	}
	defer f.Close()
	return ParseContour(f, scale)
}

// FormatRadii renders radii as an interfile list, e.g. "{253.0,251.5}"
func FormatRadii(radii []float64) string {
	parts := make([]string, len(radii))
	for i, r := range radii {
		parts[i] = formatFloat(r)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// formatFloat writes the shortest representation of v that reads back to
// the same value, keeping a ".0" on integral values and switching to an
// exponent outside [1e-4, 1e16).
func formatFloat(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
