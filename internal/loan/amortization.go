package loan

import "math"

// MonthlyPayment computes the level payment for a fixed-rate loan of the
// given amount over termMonths periods, rounded to the nearest currency
// unit. The periodic rate is the annual percentage rate divided by twelve.
func MonthlyPayment(amount float64, annualRatePercent float64, termMonths int) int64 {
	r := annualRatePercent / 100 / 12
	if r == 0 {
		return int64(math.Round(amount / float64(termMonths)))
	}
	growth := math.Pow(1+r, float64(termMonths))
	return int64(math.Round(amount * r * growth / (growth - 1)))
}
