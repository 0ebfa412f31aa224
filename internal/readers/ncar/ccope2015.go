// Package ncar holds adapters for NCAR campaigns.
package ncar

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/disdro-l0/internal/domain"
	"github.com/couchcryptid/disdro-l0/internal/reader"
)

const (
	startLayout = "01/02/2006 15:04"
	timeLayout  = "2006-01-02 15:04:05"
)

var ccopeFields = []string{
	"MMSSmmm",
	"rainfall_rate_32bit",
	"rainfall_accumulated_32bit",
	"reflectivity_32bit",
	"number_particles",
	"sensor_status",
	"error_code",
	"raw_drop_concentration",
	"raw_drop_average_velocity",
	"raw_drop_number",
}

// CCOPE2015 parses the CCOPE 2015 text logs. Each file starts with a
// "MM/DD/YYYY HH:MM" line; records carry a minute/second offset from it.
func CCOPE2015() *reader.Delimited {
	return reader.NewDelimited(reader.Spec{
		Glob:      "*.txt",
		Delimiter: reader.LineDelimiter,
		Columns:   []string{"TO_PARSE"},
		NATokens:  []string{"na", "error"},
		Encoding:  "latin1",
	}, sanitizeCCOPE)
}

func sanitizeCCOPE(t *domain.Table) (*domain.Table, error) {
	out := domain.NewTable(slices.Concat(ccopeFields[1:], []string{"time"})...)
	out.Skipped = t.Skipped
	if t.Len() == 0 {
		return out, nil
	}

	head := t.Rows[0][0]
	if len(head) > 16 {
		head = head[:16]
	}
	start, startErr := time.Parse(startLayout, head)

	for _, row := range t.Rows[1:] {
		fields := strings.Fields(row[0])
		if len(fields) != len(ccopeFields) {
			out.Skipped++
			continue
		}
		offset := fields[0]
		if len(offset) < 4 {
			out.Skipped++
			continue
		}
		mm, errM := strconv.Atoi(offset[0:2])
		ss, errS := strconv.Atoi(offset[2:4])
		if errM != nil || errS != nil {
			out.Skipped++
			continue
		}
		ts := ""
		if startErr == nil {
			ts = start.Add(time.Duration(mm)*time.Minute + time.Duration(ss)*time.Second).Format(timeLayout)
		}
		out.Rows = append(out.Rows, append(fields[1:], ts))
	}
	return out, nil
}
