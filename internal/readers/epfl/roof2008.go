// Package epfl holds adapters for EPFL-operated campaigns.
package epfl

import (
	"strings"

	"github.com/couchcryptid/disdro-l0/internal/domain"
	"github.com/couchcryptid/disdro-l0/internal/reader"
)

// Roof2008Columns is the field layout of the EPFL roof datalogger files.
var Roof2008Columns = []string{
	"time",
	"id",
	"datalogger_temperature",
	"datalogger_voltage",
	"rainfall_rate_32bit",
	"rainfall_accumulated_32bit",
	"weather_code_synop_4680",
	"weather_code_synop_4677",
	"reflectivity_32bit",
	"mor_visibility",
	"laser_amplitude",
	"number_particles",
	"sensor_temperature",
	"sensor_heating_current",
	"sensor_battery_voltage",
	"sensor_status",
	"rainfall_amount_absolute_32bit",
	"datalogger_debug",
	"raw_drop_concentration",
	"raw_drop_average_velocity",
	"raw_drop_number",
	"datalogger_error",
}

// Roof2008 parses the gzipped Parsivel logs of the 2008 EPFL roof campaign.
func Roof2008() *reader.Delimited {
	return reader.NewDelimited(reader.Spec{
		Glob:      "*.dat.gz",
		Delimiter: ",",
		SkipRows:  4,
		Columns:   Roof2008Columns,
		NATokens:  []string{"na", "error"},
	}, sanitizeRoof2008)
}

func sanitizeRoof2008(t *domain.Table) (*domain.Table, error) {
	out := t.Drop("id", "datalogger_voltage", "datalogger_temperature", "datalogger_debug", "datalogger_error")
	out.Map("raw_drop_number", func(s string) string { return strings.TrimRight(s, `"`) })
	return out, nil
}
