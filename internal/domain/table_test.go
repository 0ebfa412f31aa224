package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Drop(t *testing.T) {
	tbl := NewTable("time", "datalogger_voltage", "rainfall_rate_32bit")
	tbl.Rows = [][]string{
		{"2008-01-01 00:00:00", "12.1", "0.5"},
		{"2008-01-01 00:00:30", "12.0"},
	}
	tbl.Skipped = 3

	out := tbl.Drop("datalogger_voltage")

	assert.Equal(t, []string{"time", "rainfall_rate_32bit"}, out.Columns)
	assert.Equal(t, [][]string{
		{"2008-01-01 00:00:00", "0.5"},
		{"2008-01-01 00:00:30", ""},
	}, out.Rows)
	assert.Equal(t, 3, out.Skipped)
	assert.Len(t, tbl.Columns, 3, "source table is untouched")
}

func TestTable_MapAndColumn(t *testing.T) {
	tbl := NewTable("raw_drop_number")
	tbl.Rows = [][]string{{`0,1,2"`}, {`3,4"`}}

	tbl.Map("raw_drop_number", func(s string) string { return s[:len(s)-1] })
	tbl.Map("absent", func(string) string { panic("not called") })

	col, ok := tbl.Column("raw_drop_number")
	require.True(t, ok)
	assert.Equal(t, []string{"0,1,2", "3,4"}, col)

	_, ok = tbl.Column("absent")
	assert.False(t, ok)
}

func TestTable_Append(t *testing.T) {
	a := NewTable("a", "b")
	a.Rows = [][]string{{"1", "2"}}
	b := NewTable("a", "b")
	b.Rows = [][]string{{"3", "4"}}
	b.Skipped = 1

	require.NoError(t, a.Append(b))
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 1, a.Skipped)

	err := a.Append(NewTable("a"))
	assert.Error(t, err)
}

func TestStation_Attributes(t *testing.T) {
	st := Station{
		StationName:  "PLATO_01",
		CampaignName: "EPFL_ROOF_2008",
		DataSource:   "EPFL",
		SensorName:   "OTT_Parsivel",
		Reader:       "EPFL/EPFL_ROOF_2008",
		Institution:  "EPFL",
	}

	attrs := st.Attributes()

	assert.Equal(t, "PLATO_01", attrs["station_name"])
	assert.Equal(t, "EPFL", attrs["institution"])
	_, hasTitle := attrs["title"]
	assert.False(t, hasTitle)
}
