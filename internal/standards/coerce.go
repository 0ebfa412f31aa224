package standards

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/disdro-l0/internal/domain"
)

// naTokens are recognised as missing in every column of every sensor.
var naTokens = []string{"", "na", "NA", "nan", "error", "-.-"}

// FillValue replaces non-finite elements of array columns.
const FillValue = -9999.0

// sentinels are status strings that stand for numeric zero.
var sentinels = map[string]string{
	"OK":   "0",
	`OK"`: "0",
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// Column is a typed frame column. A nil value is missing. Non-missing values
// are float64, int64, string, time.Time, time.Duration or []float64 according
// to Type.
type Column struct {
	Name   string
	Type   Type
	Units  string
	Values []any
}

// Frame is the coerced, schema-conformant form of an adapter table.
type Frame struct {
	SensorModel string
	Version     string
	Columns     []Column
	Dropped     []string // adapter columns absent from the schema
	DroppedRows int      // rows removed for a missing time
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if len(f.Columns) == 0 {
		return 0
	}
	return len(f.Columns[0].Values)
}

// Column returns the named column.
func (f *Frame) Column(name string) (*Column, bool) {
	for i := range f.Columns {
		if f.Columns[i].Name == name {
			return &f.Columns[i], true
		}
	}
	return nil, false
}

// Outcome records how one schema column was coerced.
type Outcome struct {
	Column    string
	Declared  Type
	Effective Type
	Failures  int
	Sample    string
}

// FellBack reports whether the column was kept as string after failures.
func (o Outcome) FellBack() bool { return o.Effective != o.Declared }

// Coerce drops columns unknown to the sensor schema, normalizes missing
// markers and types every remaining column. A column with any uncoercible
// value falls back to string and is reported in its Outcome. The time column
// never falls back: unparseable timestamps are counted in its Outcome and
// their rows are dropped with the other rows missing a time.
func (c *Catalog) Coerce(t *domain.Table, sensorModel string) (*Frame, []Outcome, error) {
	schema, err := c.Schema(sensorModel)
	if err != nil {
		return nil, nil, err
	}
	if t == nil {
		return nil, nil, errors.New("coerce: nil table")
	}

	na := make(map[string]bool, len(naTokens)+len(schema.NATokens))
	for _, tok := range naTokens {
		na[tok] = true
	}
	for _, tok := range schema.NATokens {
		na[tok] = true
	}

	index := make(map[string]int, len(t.Columns))
	frame := &Frame{SensorModel: schema.SensorModel, Version: schema.Version}
	for i, name := range t.Columns {
		if _, ok := schema.Column(name); !ok {
			frame.Dropped = append(frame.Dropped, name)
			continue
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var outcomes []Outcome
	for _, spec := range schema.Columns {
		i, ok := index[spec.Name]
		if !ok {
			continue
		}
		cells := make([]string, len(t.Rows))
		for r, row := range t.Rows {
			if i < len(row) {
				cells[r] = row[i]
			}
		}
		col, out := coerceColumn(spec, cells, na)
		frame.Columns = append(frame.Columns, col)
		outcomes = append(outcomes, out)
	}

	if tc, ok := frame.Column(TimeColumn); ok && tc.Type == TypeTime {
		frame.DroppedRows = orderByTime(frame)
	}
	return frame, outcomes, nil
}

func coerceColumn(spec ColumnSpec, cells []string, na map[string]bool) (Column, Outcome) {
	col := Column{Name: spec.Name, Type: spec.Type, Units: spec.Units, Values: make([]any, len(cells))}
	out := Outcome{Column: spec.Name, Declared: spec.Type, Effective: spec.Type}
	normalized := make([]string, len(cells))
	missing := make([]bool, len(cells))

	for r, cell := range cells {
		v := strings.TrimSpace(cell)
		if na[v] {
			missing[r] = true
			continue
		}
		if s, ok := sentinels[v]; ok {
			v = s
		}
		normalized[r] = v
		if spec.Type == TypeString {
			col.Values[r] = v
			continue
		}
		typed, err := parseValue(spec, v)
		if err != nil {
			if out.Failures == 0 {
				out.Sample = v
			}
			out.Failures++
			// A bad timestamp only loses its row; the column stays typed.
			if spec.Type == TypeTime {
				missing[r] = true
			}
			continue
		}
		if typed == nil {
			missing[r] = true
			continue
		}
		col.Values[r] = typed
	}

	if out.Failures > 0 && spec.Type != TypeTime {
		col.Type = TypeString
		out.Effective = TypeString
		for r, v := range normalized {
			if missing[r] {
				col.Values[r] = nil
			} else {
				col.Values[r] = v
			}
		}
	}
	return col, out
}

// parseValue types one normalized cell. A nil value with a nil error means
// the cell is missing (a non-finite float).
func parseValue(spec ColumnSpec, v string) (any, error) {
	switch spec.Type {
	case TypeFloat:
		f, finite, err := parseNumber(v)
		if err != nil || !finite {
			return nil, err
		}
		return f, nil
	case TypeInt:
		return strconv.ParseInt(v, 10, 64)
	case TypeTime:
		return ParseTime(v)
	case TypeDuration:
		return ParseClock(v)
	case TypeArray:
		return parseArray(v, spec.Length)
	default:
		return nil, fmt.Errorf("unknown column type %q", spec.Type)
	}
}

// ParseTime parses a timestamp in any accepted layout as UTC.
func ParseTime(v string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", v)
}

// ParseClock parses an HH:MM:SS offset with optional fractional seconds
// (nanosecond precision).
func ParseClock(v string) (time.Duration, error) {
	parts := strings.Split(v, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("duration %q is not HH:MM:SS", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, fmt.Errorf("duration %q: bad hours", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("duration %q: bad minutes", v)
	}
	whole, frac, hasFrac := strings.Cut(parts[2], ".")
	s, err := strconv.Atoi(whole)
	if err != nil || s < 0 || s > 59 {
		return 0, fmt.Errorf("duration %q: bad seconds", v)
	}
	var ns int
	if hasFrac {
		if frac == "" || len(frac) > 9 {
			return 0, fmt.Errorf("duration %q: bad fractional seconds", v)
		}
		ns, err = strconv.Atoi(frac + strings.Repeat("0", 9-len(frac)))
		if err != nil || ns < 0 {
			return 0, fmt.Errorf("duration %q: bad fractional seconds", v)
		}
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(ns), nil
}

// FormatClock is the inverse of ParseClock. Fractional seconds are written
// only when present, without trailing zeros.
func FormatClock(d time.Duration) string {
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	ns := d - s*time.Second
	out := fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	if ns > 0 {
		out += "." + strings.TrimRight(fmt.Sprintf("%09d", ns), "0")
	}
	return out
}

func parseArray(v string, length int) ([]float64, error) {
	parts := strings.Split(v, ",")
	if len(parts) > 1 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	if length > 0 && len(parts) != length {
		return nil, fmt.Errorf("array has %d values, want %d", len(parts), length)
	}
	out := make([]float64, len(parts))
	for i, p := range parts {
		f, finite, err := parseNumber(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("array element %d: %w", i, err)
		}
		if !finite {
			f = FillValue
		}
		out[i] = f
	}
	return out, nil
}

// parseNumber parses a float. NaN (signed or not, any case) and infinities
// are reported as not finite.
func parseNumber(v string) (f float64, finite bool, err error) {
	if strings.EqualFold(strings.TrimLeft(v, "+-"), "nan") {
		return 0, false, nil
	}
	f, err = strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, err
	}
	return f, !math.IsNaN(f) && !math.IsInf(f, 0), nil
}

// orderByTime removes rows with a missing time and stable-sorts the rest.
// It returns the number of rows removed.
func orderByTime(f *Frame) int {
	tc, _ := f.Column(TimeColumn)
	keep := make([]int, 0, len(tc.Values))
	for r, v := range tc.Values {
		if v != nil {
			keep = append(keep, r)
		}
	}
	sort.SliceStable(keep, func(a, b int) bool {
		return tc.Values[keep[a]].(time.Time).Before(tc.Values[keep[b]].(time.Time))
	})
	dropped := len(tc.Values) - len(keep)
	for i := range f.Columns {
		old := f.Columns[i].Values
		vals := make([]any, len(keep))
		for j, r := range keep {
			vals[j] = old[r]
		}
		f.Columns[i].Values = vals
	}
	return dropped
}
