// Package simind converts SIMIND projection headers (.h00) into headers
// that STIR can read (.hs).
package simind

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"simindstir/pkg/interfile"
)

// ErrUndefinedBranchValue reports that the conversion needed the Radii
// list of a non-circular orbit for a header whose orbit is not
// non-circular
var ErrUndefinedBranchValue = errors.New("undefined branch value")

// CircularOrbitPolicy decides what happens at the Radii step for headers
// whose orbit is not non-circular
type CircularOrbitPolicy string

const (
	// CircularFail stops the conversion with ErrUndefinedBranchValue
	CircularFail CircularOrbitPolicy = "fail"
	// CircularSkipRadii leaves out the Radii tag and carries on
	CircularSkipRadii CircularOrbitPolicy = "skip-radii"
)

const nonCircularOrbit = "noncircular\n"

// Tags commented out because they describe the simulation rather than the
// data, or are superseded by tags the conversion adds
var (
	provenanceTags = []string{
		"program author",
		"program version",
		"original institution",
		"contact person",
		"patient name",
		"patient ID",
		"patient orientation",
		"patient rotation",
		"study ID",
		"exam type",
		"data description",
	}

	supersededTags = []string{
		"total number of images",
		"number of detector heads",
		"number of images/energy window",
		"time per projection (sec)",
	}

	relabelledTags = [][2]string{
		{"energy window lower level", interfile.LowerLevelTag},
		{"energy window upper level", interfile.UpperLevelTag},
	}
)

// Options configures a Converter. Zero values select the defaults.
type Options struct {
	// InputExt is the required extension of SIMIND headers (".h00")
	InputExt string

	// OutputExt replaces InputExt in the output path (".hs")
	OutputExt string

	// StartAngle is the value written to the start angle tag ("180")
	StartAngle string

	// RadiusScale converts contour radii to header units (10, cm to mm)
	RadiusScale float64

	// CircularOrbit selects the behaviour at the Radii step for circular
	// orbits (CircularFail)
	CircularOrbit CircularOrbitPolicy

	// Logger receives diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// Converter turns SIMIND headers into STIR headers
type Converter struct {
	opts   Options
	editor *interfile.Editor
	logger *slog.Logger
}

// NewConverter creates a converter
func NewConverter(opts Options) *Converter {
	if opts.InputExt == "" {
		opts.InputExt = ".h00"
	}
	if opts.OutputExt == "" {
		opts.OutputExt = ".hs"
	}
	if opts.StartAngle == "" {
		opts.StartAngle = "180"
	}
	if opts.RadiusScale == 0 {
		opts.RadiusScale = 10
	}
	if opts.CircularOrbit == "" {
		opts.CircularOrbit = CircularFail
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Converter{
		opts:   opts,
		editor: interfile.NewEditor(opts.Logger),
		logger: opts.Logger,
	}
}

// OutputPath returns the STIR header path for a SIMIND header path
func (c *Converter) OutputPath(headerPath string) string {
	return strings.TrimSuffix(headerPath, c.opts.InputExt) + c.opts.OutputExt
}

// Convert writes a STIR header next to the SIMIND header at headerPath and
// returns its path. The source header is not modified. contourPath names
// the SIMIND contour file and is required when the orbit is non-circular.
//
// Each step edits the output file on disk. When a step fails the steps
// before it remain applied to the output file.
func (c *Converter) Convert(headerPath, contourPath string) (string, error) {
	if !strings.HasSuffix(headerPath, c.opts.InputExt) {
		return "", fmt.Errorf("%w: %s is not a SIMIND header (%s)", interfile.ErrFatalInput, headerPath, c.opts.InputExt)
	}
	out := c.OutputPath(headerPath)
	log := c.logger.With("header", headerPath, "output", out)

	if err := interfile.CopyFile(headerPath, out); err != nil {
		return "", err
	}

	for _, tag := range provenanceTags {
		if err := c.editor.RenameTag(out, tag, ";"+tag); err != nil {
			return "", err
		}
	}
	for _, r := range relabelledTags {
		if err := c.editor.RenameTag(out, r[0], r[1]); err != nil {
			return "", err
		}
	}
	for _, tag := range supersededTags {
		if err := c.editor.RenameTag(out, tag, ";"+tag); err != nil {
			return "", err
		}
	}

	if err := c.editor.ReplaceTagValue(out, "!number format", "float"); err != nil {
		return "", err
	}
	if err := c.editor.InsertBefore(out, "image duration (sec)", "number of time frames := 1\n"); err != nil {
		return "", err
	}
	if err := c.editor.RenameTag(out, "image duration (sec)", "image duration (sec)[1]"); err != nil {
		return "", err
	}

	if err := c.convertOrbit(headerPath, contourPath, out, log); err != nil {
		return "", err
	}

	if err := c.editor.ReplaceTagValue(out, "start angle", c.opts.StartAngle); err != nil {
		return "", err
	}

	log.Info("converted SIMIND header")
	return out, nil
}

// convertOrbit handles the orbit, Radii and acquisition mode tags. The
// orbit is read from the original SIMIND header.
func (c *Converter) convertOrbit(headerPath, contourPath, out string, log *slog.Logger) error {
	orbit, err := c.editor.ExtractTag(interfile.Path(headerPath), "orbit")
	if err != nil {
		return err
	}

	var radii string
	if orbit == nonCircularOrbit {
		if err := c.editor.ReplaceTagValue(out, "orbit", "non-circular"); err != nil {
			return err
		}
		if contourPath == "" {
			return fmt.Errorf("%w: non-circular orbit in %s needs a contour file", interfile.ErrFatalInput, headerPath)
		}
		values, err := ReadContour(contourPath, c.opts.RadiusScale)
		if err != nil {
			return err
		}
		radii = FormatRadii(values)
		log.Info("non-circular orbit", "contour", contourPath, "radii", len(values))
	}

	switch {
	case radii != "":
		if err := c.editor.InsertBefore(out, "acquisition mode", "Radii := "+radii+"\n"); err != nil {
			return err
		}
	case c.opts.CircularOrbit == CircularSkipRadii:
		log.Warn("Radii tag skipped, orbit is not non-circular", "orbit", strings.TrimSpace(orbit))
	default:
		return fmt.Errorf("%w: Radii requested for %s but its orbit is %q, not non-circular",
			ErrUndefinedBranchValue, headerPath, strings.TrimSpace(orbit))
	}

	return c.editor.RenameTag(out, "acquisition mode", ";acquisition mode")
}
