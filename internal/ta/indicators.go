package ta

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// MeanStd returns the population mean and standard deviation of values.
func MeanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	return Finite(mean), Finite(std)
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Finite(stat.Mean(values, nil))
}

// SMASeries is a rolling simple moving average that averages whatever is
// available while fewer than period values have been seen.
func SMASeries(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	if period < 1 {
		period = 1
	}
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		n := i + 1
		if n > period {
			n = period
		}
		out[i] = sum / float64(n)
	}
	return out
}

// TrailingMean averages the period values ending at idx inclusive. ok is false
// when fewer than period values are available.
func TrailingMean(values []float64, idx, period int) (float64, bool) {
	if period < 1 || idx < 0 || idx >= len(values) || idx+1 < period {
		return 0, false
	}
	return Mean(values[idx+1-period : idx+1]), true
}

// Clamp bounds v to [lo, hi]. NaN and infinities collapse to 0 first.
func Clamp(v, lo, hi float64) float64 {
	v = Finite(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Finite maps NaN and ±Inf to 0.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// RangePosition is where price sits inside [low, high], clamped to [0,1].
// A zero-width range yields 0.5.
func RangePosition(price, low, high float64) float64 {
	span := high - low
	if span <= 0 || math.IsNaN(span) {
		return 0.5
	}
	return Clamp((price-low)/span, 0, 1)
}
