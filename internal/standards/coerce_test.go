package standards

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disdro-l0/internal/domain"
)

func testCatalog() *Catalog {
	return NewCatalog(Schema{
		SensorModel: "TestSensor",
		Version:     "test",
		Columns: []ColumnSpec{
			{Name: TimeColumn, Type: TypeTime},
			{Name: "time_offset", Type: TypeDuration},
			{Name: "rate", Type: TypeFloat},
			{Name: "status", Type: TypeInt},
			{Name: "label", Type: TypeString},
			{Name: "spectrum", Type: TypeArray, Length: 3},
		},
	})
}

func TestCoerce_TypesSentinelsAndNA(t *testing.T) {
	tbl := domain.NewTable("time", "time_offset", "rate", "status", "label", "spectrum")
	tbl.Rows = [][]string{
		{"2024-01-01 00:00:00", "12:34:05", "1.2", "OK", "a", "0,1,2"},
		{"2024-01-01T00:00:30Z", "-.-", "nan", `OK"`, "NA", "3,4,5,"},
	}

	frame, outcomes, err := testCatalog().Coerce(tbl, "TestSensor")
	require.NoError(t, err)

	offset, _ := frame.Column("time_offset")
	assert.Equal(t, 12*time.Hour+34*time.Minute+5*time.Second, offset.Values[0])
	assert.Nil(t, offset.Values[1])

	rate, _ := frame.Column("rate")
	assert.Equal(t, 1.2, rate.Values[0])
	assert.Nil(t, rate.Values[1])

	status, _ := frame.Column("status")
	assert.Equal(t, []any{int64(0), int64(0)}, status.Values)

	label, _ := frame.Column("label")
	assert.Equal(t, []any{"a", nil}, label.Values)

	spectrum, _ := frame.Column("spectrum")
	assert.Equal(t, []any{[]float64{0, 1, 2}, []float64{3, 4, 5}}, spectrum.Values)

	for _, o := range outcomes {
		assert.False(t, o.FellBack(), o.Column)
	}
}

func TestCoerce_DropsUnknownColumns(t *testing.T) {
	tbl := domain.NewTable("time", "datalogger_voltage", "rate")
	tbl.Rows = [][]string{{"2024-01-01 00:00:00", "12.1", "0.5"}}

	frame, outcomes, err := testCatalog().Coerce(tbl, "TestSensor")
	require.NoError(t, err)

	names := make([]string, len(frame.Columns))
	for i, c := range frame.Columns {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"time", "rate"}, names)
	assert.Equal(t, []string{"datalogger_voltage"}, frame.Dropped)
	assert.Len(t, outcomes, 2)
}

func TestCoerce_ColumnFallsBackToString(t *testing.T) {
	tbl := domain.NewTable("time", "rate", "spectrum")
	tbl.Rows = [][]string{
		{"2024-01-01 00:00:00", "1.0", "0,1,2"},
		{"2024-01-01 00:00:30", "heavy", "0,1"},
		{"2024-01-01 00:01:00", "na", "0,1,2"},
	}

	frame, outcomes, err := testCatalog().Coerce(tbl, "TestSensor")
	require.NoError(t, err)

	want := []Outcome{
		{Column: "time", Declared: TypeTime, Effective: TypeTime},
		{Column: "rate", Declared: TypeFloat, Effective: TypeString, Failures: 1, Sample: "heavy"},
		{Column: "spectrum", Declared: TypeArray, Effective: TypeString, Failures: 1, Sample: "0,1"},
	}
	if diff := cmp.Diff(want, outcomes); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}

	rate, _ := frame.Column("rate")
	assert.Equal(t, TypeString, rate.Type)
	assert.Equal(t, []any{"1.0", "heavy", nil}, rate.Values)
}

func TestCoerce_OrdersByTimeAndDropsMissing(t *testing.T) {
	tbl := domain.NewTable("time", "rate")
	tbl.Rows = [][]string{
		{"2024-01-01 00:02:00", "3"},
		{"", "x1"},
		{"2024-01-01 00:00:00", "1"},
		{"2024-01-01 00:02:00", "4"},
		{"2024-01-01 00:01:00", "2"},
	}

	frame, _, err := testCatalog().Coerce(tbl, "TestSensor")
	require.NoError(t, err)

	assert.Equal(t, 1, frame.DroppedRows)
	assert.Equal(t, 4, frame.Len())

	tc, _ := frame.Column("time")
	for i := 1; i < frame.Len(); i++ {
		assert.False(t, tc.Values[i].(time.Time).Before(tc.Values[i-1].(time.Time)))
	}
	// "x1" made rate a string column; it was on the dropped row.
	rate, _ := frame.Column("rate")
	assert.Equal(t, []any{"1", "2", "3", "4"}, rate.Values, "stable order for equal times")
}

func TestCoerce_UnknownSensor(t *testing.T) {
	_, _, err := testCatalog().Coerce(domain.NewTable("time"), "Nope")

	var schemaErr *domain.SchemaViolationError
	require.ErrorAs(t, err, &schemaErr)
	assert.True(t, strings.Contains(err.Error(), "TestSensor"))
}

func TestParseClock(t *testing.T) {
	d, err := ParseClock("01:02:03")
	require.NoError(t, err)
	assert.Equal(t, time.Hour+2*time.Minute+3*time.Second, d)
	assert.Equal(t, "01:02:03", FormatClock(d))

	for _, bad := range []string{"1:2", "aa:00:00", "00:61:00", "00:00:60", "00:00:05.", "00:00:05.1234567891", "00:00:-1"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestClock_RoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		out  string
	}{
		{"00:00:05.25", 5*time.Second + 250*time.Millisecond, "00:00:05.25"},
		{"00:00:00.1", 100 * time.Millisecond, "00:00:00.1"},
		{"12:34:05.000000001", 12*time.Hour + 34*time.Minute + 5*time.Second + 1, "12:34:05.000000001"},
		{"00:01:00.500", time.Minute + 500*time.Millisecond, "00:01:00.5"},
		{"26:00:00", 26 * time.Hour, "26:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseClock(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
			assert.Equal(t, tt.out, FormatClock(d))

			again, err := ParseClock(FormatClock(d))
			require.NoError(t, err)
			assert.Equal(t, d, again)
		})
	}
}

func TestCoerce_NATokensInEveryColumn(t *testing.T) {
	valid := []string{"12:00:00", "1.5", "7", "ok", "1,2,3"}
	columns := []string{"time_offset", "rate", "status", "label", "spectrum"}
	times := []string{"2024-01-01 00:00:00", "2024-01-01 00:00:30", "2024-01-01 00:01:00"}

	for _, token := range []string{"na", "", "error", "NA", "-.-", "nan", " na "} {
		for col := range columns {
			for pos := range times {
				t.Run(fmt.Sprintf("%q/%s/row%d", token, columns[col], pos), func(t *testing.T) {
					tbl := domain.NewTable(append([]string{"time"}, columns...)...)
					for r, ts := range times {
						row := append([]string{ts}, valid...)
						if r == pos {
							row[col+1] = token
						}
						tbl.Rows = append(tbl.Rows, row)
					}

					frame, outcomes, err := testCatalog().Coerce(tbl, "TestSensor")
					require.NoError(t, err)
					require.Equal(t, 3, frame.Len())

					c, ok := frame.Column(columns[col])
					require.True(t, ok)
					for r, v := range c.Values {
						if r == pos {
							assert.Nil(t, v)
						} else {
							assert.NotNil(t, v)
						}
					}
					for _, o := range outcomes {
						assert.False(t, o.FellBack(), o.Column)
						assert.Zero(t, o.Failures, o.Column)
					}
				})
			}
		}
	}
}

func TestCoerce_NATokenInTimeDropsRow(t *testing.T) {
	for _, token := range []string{"na", "", "error", "NA", "-.-"} {
		t.Run(fmt.Sprintf("%q", token), func(t *testing.T) {
			tbl := domain.NewTable("time", "rate")
			tbl.Rows = [][]string{{"2024-01-01 00:00:00", "1"}, {token, "2"}, {"2024-01-01 00:01:00", "3"}}

			frame, _, err := testCatalog().Coerce(tbl, "TestSensor")
			require.NoError(t, err)

			assert.Equal(t, 1, frame.DroppedRows)
			rate, _ := frame.Column("rate")
			assert.Equal(t, []any{1.0, 3.0}, rate.Values)
		})
	}
}

func TestCoerce_UnparseableTimeDropsRowOnly(t *testing.T) {
	tbl := domain.NewTable("time", "rate")
	tbl.Rows = [][]string{
		{"2024-01-01 00:01:00", "2"},
		{"2024-01-01 00:00:00", "1"},
		{"2024-13-45 99:00:00", "9"},
	}

	frame, outcomes, err := testCatalog().Coerce(tbl, "TestSensor")
	require.NoError(t, err)

	want := []Outcome{
		{Column: "time", Declared: TypeTime, Effective: TypeTime, Failures: 1, Sample: "2024-13-45 99:00:00"},
		{Column: "rate", Declared: TypeFloat, Effective: TypeFloat},
	}
	if diff := cmp.Diff(want, outcomes); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, outcomes[0].FellBack())

	tc, _ := frame.Column("time")
	assert.Equal(t, TypeTime, tc.Type)
	assert.Equal(t, []any{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC),
	}, tc.Values)
	assert.Equal(t, 1, frame.DroppedRows)

	rate, _ := frame.Column("rate")
	assert.Equal(t, []any{1.0, 2.0}, rate.Values)
}

func TestCoerce_NonFiniteNumbersAreMissing(t *testing.T) {
	tbl := domain.NewTable("time", "rate", "spectrum")
	tbl.Rows = [][]string{
		{"2024-01-01 00:00:00", "NaN", "1,NaN,2"},
		{"2024-01-01 00:00:10", "-nan", "Inf,0,-inf"},
		{"2024-01-01 00:00:20", "Inf", "0,1,2"},
		{"2024-01-01 00:00:30", "inf", "0,1,2"},
		{"2024-01-01 00:00:40", "-Infinity", "0,1,2"},
		{"2024-01-01 00:00:50", "0.5", "0,1,2"},
	}

	frame, outcomes, err := testCatalog().Coerce(tbl, "TestSensor")
	require.NoError(t, err)
	for _, o := range outcomes {
		assert.Zero(t, o.Failures, o.Column)
	}

	rate, _ := frame.Column("rate")
	assert.Equal(t, TypeFloat, rate.Type)
	assert.Equal(t, []any{nil, nil, nil, nil, nil, 0.5}, rate.Values)

	spectrum, _ := frame.Column("spectrum")
	assert.Equal(t, []float64{1, FillValue, 2}, spectrum.Values[0])
	assert.Equal(t, []float64{FillValue, 0, FillValue}, spectrum.Values[1])
}

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	assert.Equal(t, []string{"OTT_Parsivel", "OTT_Parsivel2", "Thies_LPM"}, c.Sensors())

	tpl, err := c.Template("OTT_Parsivel")
	require.NoError(t, err)
	assert.Equal(t, 32, tpl.DiameterBins())
	assert.Equal(t, 32, tpl.VelocityBins())

	centers, widths, _, _ := Bins(tpl.DiameterEdges)
	assert.InDelta(t, 0.0625, centers[0], 1e-9)
	assert.InDelta(t, 24.5, centers[31], 1e-9)
	assert.InDelta(t, 3.0, widths[31], 1e-9)

	thies, err := c.Template("Thies_LPM")
	require.NoError(t, err)
	assert.Equal(t, 22, thies.DiameterBins())
	assert.Equal(t, 20, thies.VelocityBins())

	schema, err := c.Schema("OTT_Parsivel2")
	require.NoError(t, err)
	spec, ok := schema.Column("raw_drop_number")
	require.True(t, ok)
	assert.Equal(t, 1024, spec.Length)
}
