package domain

// Station is the immutable descriptor of one instrument deployment, loaded
// once per run from <raw_dir>/metadata/<station_name>.yml.
type Station struct {
	StationName  string
	CampaignName string
	DataSource   string
	SensorName   string
	Reader       string // "<data_source>/<adapter_name>"

	Latitude  float64
	Longitude float64
	Altitude  float64
	CRS       string

	Title        string
	Institution  string
	Authors      string
	Country      string
	PlatformType string
}

// Attributes returns the descriptive fields carried into the gridded product.
// Empty optional fields are omitted.
func (s Station) Attributes() map[string]string {
	attrs := map[string]string{
		"station_name":  s.StationName,
		"campaign_name": s.CampaignName,
		"data_source":   s.DataSource,
		"sensor_name":   s.SensorName,
		"reader":        s.Reader,
	}
	optional := map[string]string{
		"title":         s.Title,
		"institution":   s.Institution,
		"authors":       s.Authors,
		"country":       s.Country,
		"platform_type": s.PlatformType,
	}
	for k, v := range optional {
		if v != "" {
			attrs[k] = v
		}
	}
	return attrs
}
