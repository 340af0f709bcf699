package formulas

// WeightedAveragePrice combines an existing average-cost lot with a new buy
// lot and returns the quantity-weighted average price. Callers must validate
// quantities; a non-positive combined quantity returns 0.
func WeightedAveragePrice(avgPrice, quantity, newPrice, newQuantity float64) float64 {
	total := quantity + newQuantity
	if total <= 0 {
		return 0
	}
	return (avgPrice*quantity + newPrice*newQuantity) / total
}

// PercentChange returns the percentage change from base to value.
// Returns nil when base is zero, since the change is undefined.
func PercentChange(base, value float64) *float64 {
	if base == 0 {
		return nil
	}
	pct := (value - base) / base * 100
	return &pct
}
