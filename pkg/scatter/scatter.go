// Package scatter implements Dual and Triple Energy Window scatter
// correction of SPECT projection data.
//
// Both methods estimate the scatter counts inside the photopeak window from
// the counts of adjacent scatter windows scaled by the ratio of window
// widths, subtract the estimate from the photopeak projections and clip the
// negative results to zero. Inputs are never modified.
package scatter

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"simindstir/internal/models"
	"simindstir/pkg/projection"
)

var (
	// ErrNumericDomain reports a window width that cannot be divided by
	ErrNumericDomain = errors.New("numeric domain error")

	// ErrShapeMismatch reports projection datasets of different sizes
	ErrShapeMismatch = errors.New("projection shape mismatch")
)

// minChunk is the smallest number of elements handed to one worker
const minChunk = 1 << 14

// WindowSource provides the energy window of a dataset.
// Both *projection.Data and *interfile.Header satisfy it.
type WindowSource interface {
	EnergyWindowBounds() (models.EnergyWindow, error)
}

// Options configures a Corrector
type Options struct {
	// Workers is the number of goroutines used for the elementwise
	// arithmetic. Zero or negative uses runtime.NumCPU().
	Workers int

	// Logger receives the audit trail of window widths and scatter
	// fractions. Nil uses slog.Default().
	Logger *slog.Logger
}

// Corrector performs DEW and TEW corrections
type Corrector struct {
	workers int
	logger  *slog.Logger
}

// NewCorrector creates a corrector with the given options
func NewCorrector(opts Options) *Corrector {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Corrector{workers: workers, logger: logger}
}

// resolveWindow returns explicit when set, else the bounds read from src
func resolveWindow(name string, src WindowSource, explicit *models.EnergyWindow) (models.EnergyWindow, error) {
	if explicit != nil {
		return *explicit, nil
	}
	w, err := src.EnergyWindowBounds()
	if err != nil {
		return models.EnergyWindow{}, fmt.Errorf("%s window bounds: %w", name, err)
	}
	return w, nil
}

// ratio returns num/den, failing on a zero denominator
func ratio(num, den float64, what string) (float64, error) {
	if den == 0 {
		return 0, fmt.Errorf("%w: division by zero %s", ErrNumericDomain, what)
	}
	return num / den, nil
}

// DEWScatterFraction returns (width_PP / width_SC) / 2
func DEWScatterFraction(pp, sc models.EnergyWindow) (float64, error) {
	r, err := ratio(pp.Width(), sc.Width(), "scatter window width")
	if err != nil {
		return 0, err
	}
	return r / 2, nil
}

// TEWScatterFractions returns width_PP / (2 width_SC1) and
// width_PP / (2 width_SC2)
func TEWScatterFractions(pp, sc1, sc2 models.EnergyWindow) (float64, float64, error) {
	f1, err := ratio(pp.Width(), 2*sc1.Width(), "SC1 window width")
	if err != nil {
		return 0, 0, err
	}
	f2, err := ratio(pp.Width(), 2*sc2.Width(), "SC2 window width")
	if err != nil {
		return 0, 0, err
	}
	return f1, f2, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func checkShapes(pp *projection.Data, others ...*projection.Data) error {
	for _, o := range others {
		if o.Shape() != pp.Shape() {
			return fmt.Errorf("%w: photopeak %s, scatter %s", ErrShapeMismatch, pp.Shape(), o.Shape())
		}
	}
	return nil
}

// parallel runs fn over contiguous [lo, hi) chunks of n elements
func (c *Corrector) parallel(n int, fn func(lo, hi int)) {
	chunks := c.workers
	if limit := (n + minChunk - 1) / minChunk; chunks > limit {
		chunks = limit
	}
	if chunks <= 1 {
		fn(0, n)
		return
	}

	size := (n + chunks - 1) / chunks
	var g errgroup.Group
	g.SetLimit(c.workers)
	for lo := 0; lo < n; lo += size {
		lo, hi := lo, lo+size
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}

// clip sets negative values to zero
func clip(values []float64) {
	for i, v := range values {
		if v < 0 {
			values[i] = 0
		}
	}
}

func (c *Corrector) logCounts(method string, before, after []float64) {
	c.logger.Info("scatter correction applied",
		"method", method,
		"photopeak_counts", floats.Sum(before),
		"corrected_counts", floats.Sum(after),
	)
}
