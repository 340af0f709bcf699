package trend

import (
	"time"

	"github.com/Johnhyeon/stock-tracker-sub001/pkg/formulas"
)

// PricePoint is one close-price sample.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Window is the price sub-series since a reference timestamp. ChangePct is
// nil when the sub-series has fewer than two points.
type Window struct {
	Points    []PricePoint `json:"points"`
	ChangePct *float64     `json:"change_pct,omitempty"`
}

// ComputeWindow locates the first sample at or after the reference timestamp
// and returns the sub-series from there to the end. When no sample qualifies
// the window is undefined and nil is returned; that is not an error, the
// caller simply renders nothing.
func ComputeWindow(series []PricePoint, ref time.Time) *Window {
	start := -1
	for i, p := range series {
		if !p.Date.Before(ref) {
			start = i
			break
		}
	}
	if start == -1 {
		return nil
	}

	points := series[start:]
	w := &Window{Points: points}

	if len(points) >= 2 {
		w.ChangePct = formulas.PercentChange(points[0].Close, points[len(points)-1].Close)
	}

	return w
}
