package dataprocessing

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseChartEvents(t *testing.T) {
	content := `icustay_id,itemid,charttime,value,valuenum,valueuom,error
1,10,2130-01-01 02:00:00,80,80,bpm,0
1,10,2130-01-01 03:00:00,90,90,bpm,1
2,11,2130-01-02 00:00:00,,,,0
2,11,not-a-time,15,15,insp/min,0
3,12,2130-01-03 08:30:00,22.5,22.5,insp/min,
`
	path := writeFile(t, "CHARTEVENTS.csv", content)

	events, stats, err := ParseChartEvents(slog.Default(), path, 0)
	require.NoError(t, err)

	// Row 2 is error-flagged, row 3 has no valuenum, row 4 has a bad
	// timestamp. Rows 1 and 5 survive.
	assert.Equal(t, 5, stats.Rows)
	assert.Equal(t, 2, stats.Kept)
	assert.Equal(t, 1, stats.Flagged)
	assert.Equal(t, 2, stats.Skipped)
	require.Len(t, events, 2)

	assert.Equal(t, int64(1), events[0].ICUStayID)
	assert.Equal(t, int64(10), events[0].ItemID)
	assert.Equal(t, 80.0, events[0].ValueNum)
	assert.Equal(t, "bpm", events[0].ValueUOM)
	assert.Equal(t, time.Date(2130, 1, 1, 2, 0, 0, 0, time.UTC), events[0].ChartTime)

	assert.Equal(t, 22.5, events[1].ValueNum)
}

func TestParseChartEvents_ErrorFlaggedRowsNeverSurvive(t *testing.T) {
	content := `icustay_id,itemid,charttime,valuenum,error
1,10,2130-01-01 02:00:00,80,1
2,10,2130-01-01 02:00:00,81,1
`
	path := writeFile(t, "CHARTEVENTS.csv", content)

	events, stats, err := ParseChartEvents(slog.Default(), path, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, 2, stats.Flagged)
}

func TestParseChartEvents_RowCap(t *testing.T) {
	content := `icustay_id,itemid,charttime,valuenum
1,10,2130-01-01 02:00:00,80
1,10,2130-01-01 03:00:00,81
1,10,2130-01-01 04:00:00,82
`
	path := writeFile(t, "CHARTEVENTS.csv", content)

	events, stats, err := ParseChartEvents(slog.Default(), path, 2)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, 2, stats.Kept)
}

func TestParseChartEvents_HeaderCaseAndOrder(t *testing.T) {
	content := `VALUENUM,CHARTTIME,ITEMID,ICUSTAY_ID
80,2130-01-01 02:00:00,10,1
`
	path := writeFile(t, "CHARTEVENTS.csv", content)

	events, _, err := ParseChartEvents(slog.Default(), path, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(1), events[0].ICUStayID)
	assert.Equal(t, 80.0, events[0].ValueNum)
}

func TestParseChartEvents_MissingRequiredColumn(t *testing.T) {
	content := `icustay_id,charttime,valuenum
1,2130-01-01 02:00:00,80
`
	path := writeFile(t, "CHARTEVENTS.csv", content)

	_, _, err := ParseChartEvents(slog.Default(), path, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required column "itemid"`)
}

func TestParseChartEvents_FileNotFound(t *testing.T) {
	_, _, err := ParseChartEvents(slog.Default(), filepath.Join(t.TempDir(), "absent.csv"), 0)
	require.Error(t, err)
}

func TestParseItems(t *testing.T) {
	content := `itemid,label,conceptid,category
10,Heart Rate,c1,Vitals
11,Respiratory Rate,c2,Vitals
bad,Broken,,
`
	path := writeFile(t, "D_ITEMS.csv", content)

	items, stats, err := ParseItems(slog.Default(), path)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, "Heart Rate", items[0].Label)
	assert.Equal(t, "c2", items[1].ConceptID)
}

func TestParseStays(t *testing.T) {
	content := `icustay_id,subject_id,hadm_id,first_careunit,intime,outtime,los
1,100,500,MICU,2130-01-01 00:00:00,2130-01-06 00:00:00,5
2,101,501,SICU,2130-02-01 12:00:00,,
3,102,502,MICU,broken,,2
`
	path := writeFile(t, "ICUSTAYS.csv", content)

	stays, stats, err := ParseStays(slog.Default(), path)
	require.NoError(t, err)
	require.Len(t, stays, 2)
	assert.Equal(t, 1, stats.Skipped)

	assert.Equal(t, int64(1), stays[0].ICUStayID)
	assert.Equal(t, "MICU", stays[0].FirstCareUnit)
	assert.Equal(t, 5.0, stays[0].LOS)
	assert.Equal(t, time.Date(2130, 1, 1, 0, 0, 0, 0, time.UTC), stays[0].InTime)

	assert.True(t, stays[1].OutTime.IsZero())
}

func TestParseStays_MissingInTimeColumn(t *testing.T) {
	content := `icustay_id,first_careunit
1,MICU
`
	path := writeFile(t, "ICUSTAYS.csv", content)

	_, _, err := ParseStays(slog.Default(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required column "intime"`)
}
