package ingest

import (
	"strings"
	"testing"

	"github.com/couchcryptid/climate-anomaly-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV_Valid(t *testing.T) {
	input := `date,pr,tasmax,tasmin,year,month
1990-01-01,95.5,14.2,7.8,1990,1
1990-02-01,80.0,15.0,8.0,1990,2
`
	res, err := ParseCSV(strings.NewReader(input), "Lisbon")
	require.NoError(t, err)
	assert.Empty(t, res.Skipped)
	require.Len(t, res.Records, 2)

	r := res.Records[0]
	assert.Equal(t, "Lisbon", r.Location)
	assert.Equal(t, 1990, r.Year)
	assert.Equal(t, 1, r.Month)
	assert.InDelta(t, 95.5, r.Precipitation, 1e-9)
	assert.InDelta(t, 14.2, r.MaxTemp, 1e-9)
	assert.InDelta(t, 7.8, r.MinTemp, 1e-9)
	require.NotNil(t, r.AvgTemp)
	assert.InDelta(t, 11.0, *r.AvgTemp, 1e-9)
	assert.Equal(t, domain.GenerateRecordID("Lisbon", 1990, 1), r.ID)
}

func TestParseCSV_ColumnOrderAndCase(t *testing.T) {
	input := "Month,Year,TASMIN,TASMAX,PR\n7,2001,18,30,5\n"
	res, err := ParseCSV(strings.NewReader(input), "Porto")
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 2001, res.Records[0].Year)
	assert.Equal(t, 7, res.Records[0].Month)
	assert.InDelta(t, 30.0, res.Records[0].MaxTemp, 1e-9)
}

func TestParseCSV_FloatYear(t *testing.T) {
	input := "pr,tasmax,tasmin,year,month\n5,30,18,2001.0,7.0\n"
	res, err := ParseCSV(strings.NewReader(input), "Porto")
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 2001, res.Records[0].Year)
}

func TestParseCSV_SkipsInvalidRows(t *testing.T) {
	input := `pr,tasmax,tasmin,year,month
5,30,18,2001,7
abc,30,18,2001,8
5,30,18,2001,13
5,30,18,2001
5,31,19,2002,7
nan,21,6,1991,1
12,inf,7,1992,1
5,30,-Inf,1993,1
`
	res, err := ParseCSV(strings.NewReader(input), "Lisbon")
	require.NoError(t, err)
	assert.Len(t, res.Records, 2)
	require.Len(t, res.Skipped, 6)
	assert.Equal(t, 3, res.Skipped[0].Line)
	assert.Equal(t, 4, res.Skipped[1].Line)
	assert.Contains(t, res.Skipped[1].Error(), "out of range")
	assert.Equal(t, 5, res.Skipped[2].Line)
	for i, line := range []int{7, 8, 9} {
		assert.Equal(t, line, res.Skipped[3+i].Line)
		assert.Contains(t, res.Skipped[3+i].Error(), "not finite")
	}
}

func TestParseCSV_MissingColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("pr,tasmax,year,month\n1,2,3,4\n"), "Lisbon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tasmin")
}

func TestParseCSV_Empty(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""), "Lisbon")
	assert.Error(t, err)
}
