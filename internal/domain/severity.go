package domain

import "math"

// ClassifySeverity maps |z| to a severity tier:
//   - extreme: |z| >= 2.5
//   - high:    2.0 <= |z| < 2.5
//   - medium:  1.5 <= |z| < 2.0
//   - low:     |z| < 1.5
//
// The full range is kept even though the z-score detector only emits |z| >= 2.
func ClassifySeverity(z float64) Severity {
	abs := math.Abs(z)
	switch {
	case abs >= 2.5:
		return SeverityExtreme
	case abs >= 2.0:
		return SeverityHigh
	case abs >= 1.5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
