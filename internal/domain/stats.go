package domain

import "math"

// SignificanceThreshold is the |z| at or above which an observation is
// significant. It is fixed, not configurable.
const SignificanceThreshold = 2.0

// Mean returns the arithmetic mean of values, or 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleStd returns the sample standard deviation (n-1 divisor), or 0 for
// fewer than two values.
func SampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)-1))
}

// ZScore returns (value-mean)/std, or 0 when std is 0. Returning 0 rather
// than an infinity means a zero-variance group is never flagged.
func ZScore(value, mean, std float64) float64 {
	if std == 0 {
		return 0
	}
	return (value - mean) / std
}

// isSignificant reports whether |z| clears SignificanceThreshold.
func isSignificant(z float64) bool {
	return math.Abs(z) >= SignificanceThreshold
}
