package formulas

import (
	"github.com/markcheno/go-talib"
)

// SMA calculates the simple moving average series for a slice of closes.
// Returns nil when there are fewer samples than the period, so sparse
// sparkline windows simply render without an overlay.
func SMA(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) < period {
		return nil
	}

	sma := talib.Sma(closes, period)

	// talib pads the warm-up region with zeros; trim to the valid tail.
	return sma[period-1:]
}
