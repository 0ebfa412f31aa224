package standards

// Version of the built-in standards, recorded in gridded product lineage.
const Version = "L0-2024.1"

// Default returns the catalog of built-in sensor models.
func Default() *Catalog {
	return NewCatalog(parsivel("OTT_Parsivel"), parsivel("OTT_Parsivel2"), thiesLPM())
}

type run struct {
	n     int
	width float64
}

// edges accumulates class boundaries from start over runs of equal widths.
func edges(start float64, runs ...run) []float64 {
	out := []float64{start}
	v := start
	for _, r := range runs {
		for range r.n {
			v += r.width
			out = append(out, v)
		}
	}
	return out
}

func parsivel(model string) Schema {
	diameter := edges(0, run{10, 0.125}, run{5, 0.25}, run{5, 0.5}, run{5, 1}, run{5, 2}, run{2, 3})
	velocity := edges(0, run{10, 0.1}, run{5, 0.2}, run{5, 0.4}, run{5, 0.8}, run{5, 1.6}, run{2, 3.2})
	nd, nv := len(diameter)-1, len(velocity)-1

	return Schema{
		SensorModel: model,
		Version:     Version,
		Columns: []ColumnSpec{
			{Name: TimeColumn, Type: TypeTime},
			{Name: "rainfall_rate_32bit", Type: TypeFloat, Units: "mm/h"},
			{Name: "rainfall_accumulated_32bit", Type: TypeFloat, Units: "mm"},
			{Name: "rainfall_amount_absolute_32bit", Type: TypeFloat, Units: "mm"},
			{Name: "weather_code_synop_4680", Type: TypeInt},
			{Name: "weather_code_synop_4677", Type: TypeInt},
			{Name: "reflectivity_32bit", Type: TypeFloat, Units: "dBZ"},
			{Name: "mor_visibility", Type: TypeInt, Units: "m"},
			{Name: "laser_amplitude", Type: TypeInt},
			{Name: "number_particles", Type: TypeInt},
			{Name: "sensor_temperature", Type: TypeFloat, Units: "degC"},
			{Name: "sensor_heating_current", Type: TypeFloat, Units: "A"},
			{Name: "sensor_battery_voltage", Type: TypeFloat, Units: "V"},
			{Name: "sensor_status", Type: TypeInt},
			{Name: "error_code", Type: TypeInt},
			{Name: "sample_interval", Type: TypeDuration},
			{Name: "raw_drop_concentration", Type: TypeArray, Length: nd},
			{Name: "raw_drop_average_velocity", Type: TypeArray, Length: nd},
			{Name: "raw_drop_number", Type: TypeArray, Length: nd * nv},
		},
		Template: &Template{
			DiameterEdges: diameter,
			VelocityEdges: velocity,
			Spectra: []Spectrum{
				{Column: "raw_drop_concentration", Dims: []string{DimDiameter}},
				{Column: "raw_drop_average_velocity", Dims: []string{DimDiameter}},
				{Column: "raw_drop_number", Dims: []string{DimDiameter, DimVelocity}},
			},
			Required: []string{"raw_drop_number"},
		},
	}
}

func thiesLPM() Schema {
	diameter := []float64{0.125, 0.25, 0.375, 0.5, 0.75, 1, 1.25, 1.5, 1.75, 2, 2.5, 3, 3.5, 4, 4.5, 5, 5.5, 6, 6.5, 7, 7.5, 8, 9}
	velocity := []float64{0, 0.2, 0.4, 0.6, 0.8, 1, 1.4, 1.8, 2.2, 2.6, 3, 3.4, 4.2, 5, 5.8, 6.6, 7.4, 8.2, 9, 10, 20}
	nd, nv := len(diameter)-1, len(velocity)-1

	return Schema{
		SensorModel: "Thies_LPM",
		Version:     Version,
		Columns: []ColumnSpec{
			{Name: TimeColumn, Type: TypeTime},
			{Name: "weather_code_synop_4677", Type: TypeInt},
			{Name: "rainfall_rate", Type: TypeFloat, Units: "mm/h"},
			{Name: "rainfall_accumulated", Type: TypeFloat, Units: "mm"},
			{Name: "mor_visibility", Type: TypeInt, Units: "m"},
			{Name: "reflectivity", Type: TypeFloat, Units: "dBZ"},
			{Name: "number_particles", Type: TypeInt},
			{Name: "sensor_temperature", Type: TypeFloat, Units: "degC"},
			{Name: "sensor_status", Type: TypeInt},
			{Name: "raw_drop_number", Type: TypeArray, Length: nd * nv},
		},
		Template: &Template{
			DiameterEdges: diameter,
			VelocityEdges: velocity,
			Spectra: []Spectrum{
				{Column: "raw_drop_number", Dims: []string{DimDiameter, DimVelocity}},
			},
			Required: []string{"raw_drop_number"},
		},
	}
}
