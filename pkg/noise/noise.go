// Package noise adds counting noise to simulated projections so that noise
// free SIMIND output can be turned into realistic acquisitions.
package noise

import (
	"log/slog"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"simindstir/pkg/projection"
)

// NewSource returns a random source for seed. Seed 0 seeds from the clock.
func NewSource(seed uint64) rand.Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.NewSource(seed)
}

// AddPoisson returns a copy of d where every element is replaced by a
// Poisson draw with the element as mean. Negative values are clipped to 0
// first. The input is not modified. A nil src seeds from the clock.
func AddPoisson(d *projection.Data, src rand.Source, logger *slog.Logger) *projection.Data {
	if src == nil {
		src = NewSource(0)
	}
	if logger == nil {
		logger = slog.Default()
	}

	values := d.Array()
	noisy := make([]float64, len(values))
	p := distuv.Poisson{Src: src}
	for i, v := range values {
		if v <= 0 {
			continue
		}
		p.Lambda = v
		noisy[i] = p.Rand()
	}

	out := d.NewLike()
	// lengths match by construction
	_ = out.Fill(noisy)

	logger.Info("poisson noise added",
		"shape", d.Shape().String(),
		"mean_before", stat.Mean(values, nil),
		"mean_after", stat.Mean(noisy, nil),
	)
	return out
}
