// Package peaks locates ACF maxima and minima and picks the best period lag.
package peaks

import (
	"fmt"

	"github.com/huangsam/acfperiod/schema"
)

// Extract finds local extrema of acf and measures the relative height of the
// first peakCount maxima against their bracketing minima.
//
// A sample is a maximum when it is strictly greater than every existing
// sample within ±searchInterval. Samples past either end are clipped to the
// edge, so lag 0 and the last lag never qualify.
func Extract(acf schema.ACFSequence, peakCount, searchInterval int) (schema.PeakSet, error) {
	if searchInterval < 1 {
		return schema.PeakSet{}, fmt.Errorf("%w: search interval must be at least 1, got %d", schema.ErrInvalidConfig, searchInterval)
	}
	if peakCount < 1 {
		return schema.PeakSet{}, fmt.Errorf("%w: peak count must be at least 1, got %d", schema.ErrInvalidConfig, peakCount)
	}

	maxima, minima := Extrema(acf, searchInterval)
	if len(maxima) == 0 {
		return schema.PeakSet{}, fmt.Errorf("%w: no ACF peaks within %d lags", schema.ErrInsufficientData, acf.Len())
	}

	considered := maxima[:min(peakCount, len(maxima))]
	heights := make([]float64, len(considered))
	for i, mx := range considered {
		left, right, ok := bracket(minima, mx.Index)
		if !ok {
			return schema.PeakSet{}, fmt.Errorf("%w: peak at lag %d (peak %d of %d)",
				schema.ErrInsufficientBracketing, mx.Lag, i+1, len(considered))
		}
		heights[i] = mx.Value - (left.Value+right.Value)/2
	}

	best := SelectBest(heights)
	return schema.PeakSet{
		Maxima:          maxima,
		Minima:          minima,
		RelativeHeights: heights,
		BestIndex:       best,
		BestLag:         maxima[best].Lag,
		BestPeakHeight:  heights[best],
		SearchInterval:  searchInterval,
	}, nil
}

// SelectBest applies the first-versus-second peak rule: the first peak wins
// only when it is strictly taller than the second. Later peaks are never
// considered. A single height selects itself.
func SelectBest(heights []float64) int {
	if len(heights) < 2 || heights[0] > heights[1] {
		return 0
	}
	return 1
}

// Extrema returns the local maxima and minima of acf in lag order.
func Extrema(acf schema.ACFSequence, searchInterval int) (maxima, minima []schema.Extremum) {
	values := acf.Values
	for i := 1; i < len(values)-1; i++ {
		isMax, isMin := true, true
		for d := 1; d <= searchInterval && (isMax || isMin); d++ {
			for _, j := range [2]int{i - d, i + d} {
				if j < 0 || j >= len(values) {
					continue
				}
				if values[j] >= values[i] {
					isMax = false
				}
				if values[j] <= values[i] {
					isMin = false
				}
			}
		}
		switch {
		case isMax:
			maxima = append(maxima, extremum(acf, i))
		case isMin:
			minima = append(minima, extremum(acf, i))
		}
	}
	return maxima, minima
}

func extremum(acf schema.ACFSequence, i int) schema.Extremum {
	lag := i
	if i < len(acf.Lags) {
		lag = acf.Lags[i]
	}
	return schema.Extremum{Index: i, Lag: lag, Value: acf.Values[i]}
}

// bracket returns the nearest minimum on each side of index.
func bracket(minima []schema.Extremum, index int) (left, right schema.Extremum, ok bool) {
	foundLeft, foundRight := false, false
	for _, m := range minima {
		if m.Index < index {
			left, foundLeft = m, true
			continue
		}
		if m.Index > index {
			right, foundRight = m, true
			break
		}
	}
	return left, right, foundLeft && foundRight
}
