package interfile

import (
	"fmt"
	"strconv"
	"strings"

	"simindstir/internal/models"
)

// Energy window tags of a STIR projection header
const (
	LowerLevelTag = "energy window lower level[1]"
	UpperLevelTag = "energy window upper level[1]"
)

// EnergyWindowBounds reads the first energy window from the header
func (h *Header) EnergyWindowBounds() (models.EnergyWindow, error) {
	lower, err := h.Float(LowerLevelTag)
	if err != nil {
		return models.EnergyWindow{}, err
	}
	upper, err := h.Float(UpperLevelTag)
	if err != nil {
		return models.EnergyWindow{}, err
	}
	return models.EnergyWindow{Lower: lower, Upper: upper}, nil
}

// Float extracts tag and parses it as a float
func (h *Header) Float(tag string) (float64, error) {
	v, ok := h.Extract(tag)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrTagNotFound, tag)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing %s: %w", tag, err)
	}
	return f, nil
}

// Int extracts tag and parses it as an integer
func (h *Header) Int(tag string) (int, error) {
	v, ok := h.Extract(tag)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrTagNotFound, tag)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("error parsing %s: %w", tag, err)
	}
	return n, nil
}
