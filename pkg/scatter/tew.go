package scatter

import (
	"gonum.org/v1/gonum/floats"

	"simindstir/internal/models"
	"simindstir/pkg/projection"
)

// TEW performs Triple Energy Window scatter correction:
//
//	scatter   = SC1 * width_PP / (2 width_SC1) + SC2 * width_PP / (2 width_SC2)
//	corrected = max(PP - scatter, 0)
//
// Nil bounds are read from the dataset headers.
func (c *Corrector) TEW(pp, sc1, sc2 *projection.Data, ppBounds, sc1Bounds, sc2Bounds *models.EnergyWindow) (*projection.Data, error) {
	pp = pp.Clone()
	sc1 = sc1.Clone()
	sc2 = sc2.Clone()

	ppWin, err := resolveWindow("PP", pp, ppBounds)
	if err != nil {
		return nil, err
	}
	c.logger.Info("window width", "window", "PP", "width", round2(ppWin.Width()))

	sc1Win, err := resolveWindow("SC1", sc1, sc1Bounds)
	if err != nil {
		return nil, err
	}
	c.logger.Info("window width", "window", "SC1", "width", round2(sc1Win.Width()))

	sc2Win, err := resolveWindow("SC2", sc2, sc2Bounds)
	if err != nil {
		return nil, err
	}
	c.logger.Info("window width", "window", "SC2", "width", round2(sc2Win.Width()))

	f1, f2, err := TEWScatterFractions(ppWin, sc1Win, sc2Win)
	if err != nil {
		return nil, err
	}
	c.logger.Info("scatter fraction", "method", "TEW", "sc1", round2(f1), "sc2", round2(f2))

	if err := checkShapes(pp, sc1, sc2); err != nil {
		return nil, err
	}

	ppArr, sc1Arr, sc2Arr := pp.Array(), sc1.Array(), sc2.Array()
	corrected := make([]float64, len(ppArr))
	c.parallel(len(ppArr), func(lo, hi int) {
		dst := corrected[lo:hi]
		floats.ScaleTo(dst, f1, sc1Arr[lo:hi])
		floats.AddScaled(dst, f2, sc2Arr[lo:hi])
		floats.SubTo(dst, ppArr[lo:hi], dst)
		clip(dst)
	})

	out := pp.NewLike()
	if err := out.Fill(corrected); err != nil {
		return nil, err
	}
	c.logCounts("TEW", ppArr, corrected)
	return out, nil
}

// TEW performs Triple Energy Window correction with default options
func TEW(pp, sc1, sc2 *projection.Data, ppBounds, sc1Bounds, sc2Bounds *models.EnergyWindow) (*projection.Data, error) {
	return NewCorrector(Options{}).TEW(pp, sc1, sc2, ppBounds, sc1Bounds, sc2Bounds)
}
