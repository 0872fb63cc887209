package scatter

import (
	"gonum.org/v1/gonum/floats"

	"simindstir/internal/models"
	"simindstir/pkg/projection"
)

// DEW performs Dual Energy Window scatter correction:
//
//	scatter   = SC * (width_PP / width_SC) / 2
//	corrected = max(PP - scatter, 0)
//
// Nil bounds are read from the dataset headers. The result shares the
// photopeak dataset's shape and a copy of its header.
func (c *Corrector) DEW(pp, sc *projection.Data, ppBounds, scBounds *models.EnergyWindow) (*projection.Data, error) {
	pp = pp.Clone()
	sc = sc.Clone()

	ppWin, err := resolveWindow("PP", pp, ppBounds)
	if err != nil {
		return nil, err
	}
	c.logger.Info("window width", "window", "PP", "width", round2(ppWin.Width()))

	scWin, err := resolveWindow("SC", sc, scBounds)
	if err != nil {
		return nil, err
	}
	c.logger.Info("window width", "window", "SC", "width", round2(scWin.Width()))

	fraction, err := DEWScatterFraction(ppWin, scWin)
	if err != nil {
		return nil, err
	}
	c.logger.Info("scatter fraction", "method", "DEW", "fraction", round2(fraction))

	if err := checkShapes(pp, sc); err != nil {
		return nil, err
	}

	ppArr, scArr := pp.Array(), sc.Array()
	corrected := make([]float64, len(ppArr))
	c.parallel(len(ppArr), func(lo, hi int) {
		dst := corrected[lo:hi]
		floats.ScaleTo(dst, fraction, scArr[lo:hi])
		floats.SubTo(dst, ppArr[lo:hi], dst)
		clip(dst)
	})

	out := pp.NewLike()
	if err := out.Fill(corrected); err != nil {
		return nil, err
	}
	c.logCounts("DEW", ppArr, corrected)
	return out, nil
}

// DEW performs Dual Energy Window correction with default options
func DEW(pp, sc *projection.Data, ppBounds, scBounds *models.EnergyWindow) (*projection.Data, error) {
	return NewCorrector(Options{}).DEW(pp, sc, ppBounds, scBounds)
}
