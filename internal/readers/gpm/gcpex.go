// Package gpm holds adapters for GPM ground validation campaigns.
package gpm

import (
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/disdro-l0/internal/domain"
	"github.com/couchcryptid/disdro-l0/internal/reader"
)

var gcpexFields = []string{
	"sensor_id",
	"sensor_status",
	"sensor_temperature",
	"number_particles",
	"rainfall_rate_32bit",
	"reflectivity_32bit",
	"mor_visibility",
	"weather_code_synop_4680",
	"weather_code_synop_4677",
	"raw_drop_number",
}

// GCPEX parses the GCPEx Parsivel2 logs: a compact timestamp, then every
// telegram field packed in one comma-separated value.
func GCPEX() *reader.Delimited {
	return reader.NewDelimited(reader.Spec{
		Glob:      "*.txt",
		Delimiter: ";",
		Columns:   []string{"time", "temp"},
		NATokens:  []string{"na", "error", "NA", "-.-"},
	}, sanitizeGCPEX)
}

func sanitizeGCPEX(t *domain.Table) (*domain.Table, error) {
	out := domain.NewTable(slices.Concat([]string{"time"}, gcpexFields)...)
	out.Skipped = t.Skipped
	for _, row := range t.Rows {
		ts := ""
		if parsed, err := time.Parse("20060102150405", row[0]); err == nil {
			ts = parsed.Format("2006-01-02 15:04:05")
		}
		parts := strings.SplitN(row[1], ",", len(gcpexFields))
		if len(parts) != len(gcpexFields) {
			out.Skipped++
			continue
		}
		out.Rows = append(out.Rows, append([]string{ts}, parts...))
	}
	return out.Drop("sensor_id"), nil
}
