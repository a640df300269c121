package calculator

import (
	"math"

	"github.com/pkg/errors"

	"OptionsIntraday/internal/model"
)

// PriceRange scans the series and returns the lowest low and highest high.
func PriceRange(bars []model.ChartBar) (low, high float64, err error) {
	if len(bars) == 0 {
		return 0, 0, ErrNoBars
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	if high < low {
		return 0, 0, errors.Errorf("high %.4f below low %.4f", high, low)
	}
	return low, high, nil
}
