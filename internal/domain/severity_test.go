package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		z    float64
		want Severity
	}{
		{z: 0, want: SeverityLow},
		{z: 1.49, want: SeverityLow},
		{z: 1.5, want: SeverityMedium},
		{z: -1.99, want: SeverityMedium},
		{z: 2.0, want: SeverityHigh},
		{z: -2.49, want: SeverityHigh},
		{z: 2.5, want: SeverityExtreme},
		{z: -7, want: SeverityExtreme},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifySeverity(tt.z), "z=%v", tt.z)
	}
}

func TestParseSeverity(t *testing.T) {
	for _, s := range []string{"", "low", "medium", "high", "extreme"} {
		got, err := ParseSeverity(s)
		assert.NoError(t, err)
		assert.Equal(t, Severity(s), got)
	}

	_, err := ParseSeverity("EXTREME")
	assert.Error(t, err)
}
