package gridded

import (
	"slices"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disdro-l0/internal/domain"
	"github.com/couchcryptid/disdro-l0/internal/standards"
)

// TemplateSource looks up sensor dimension templates.
type TemplateSource interface {
	Template(sensorModel string) (standards.Template, error)
}

// Builder turns validated frames into gridded datasets.
type Builder struct {
	templates TemplateSource
	clock     clockwork.Clock
}

// NewBuilder creates a builder. The clock stamps generated_at.
func NewBuilder(templates TemplateSource, clock clockwork.Clock) *Builder {
	return &Builder{templates: templates, clock: clock}
}

// Build lays the frame out on the sensor's dimension template.
func (b *Builder) Build(f *standards.Frame, st domain.Station) (*Dataset, error) {
	tpl, err := b.templates.Template(st.SensorName)
	if err != nil {
		return nil, err
	}

	tc, ok := f.Column(standards.TimeColumn)
	if !ok || tc.Type != standards.TypeTime {
		return nil, &domain.SchemaViolationError{SensorModel: st.SensorName, Column: standards.TimeColumn, Msg: "required for the gridded product but absent or untyped"}
	}
	for _, name := range tpl.Required {
		c, ok := f.Column(name)
		if !ok {
			return nil, &domain.SchemaViolationError{SensorModel: st.SensorName, Column: name, Msg: "required for the gridded product but absent"}
		}
		if c.Type == standards.TypeString {
			return nil, &domain.SchemaViolationError{SensorModel: st.SensorName, Column: name, Msg: "required for the gridded product but failed type coercion"}
		}
	}

	nd, nv, nt := tpl.DiameterBins(), tpl.VelocityBins(), f.Len()
	ds := &Dataset{
		Dims: map[string]int{
			standards.DimTime:     nt,
			standards.DimDiameter: nd,
			standards.DimVelocity: nv,
		},
		Coords:   make(map[string]Variable),
		DataVars: make(map[string]Variable),
		Attrs:    b.attributes(f, st),
	}

	times := make([]string, nt)
	for i, v := range tc.Values {
		if ts, ok := v.(time.Time); ok {
			times[i] = ts.UTC().Format(time.RFC3339)
		}
	}
	ds.Coords[standards.DimTime] = Variable{Dims: []string{standards.DimTime}, DType: "datetime", Data: times}
	addBinCoords(ds, "diameter", standards.DimDiameter, "mm", tpl.DiameterEdges)
	addBinCoords(ds, "velocity", standards.DimVelocity, "m s-1", tpl.VelocityEdges)
	ds.Coords["latitude"] = Variable{Dims: []string{}, DType: "float64", Attrs: map[string]any{"units": "degrees_north"}, Data: st.Latitude}
	ds.Coords["longitude"] = Variable{Dims: []string{}, DType: "float64", Attrs: map[string]any{"units": "degrees_east"}, Data: st.Longitude}
	ds.Coords["altitude"] = Variable{Dims: []string{}, DType: "float64", Attrs: map[string]any{"units": "m"}, Data: st.Altitude}
	ds.Coords["crs"] = Variable{Dims: []string{}, DType: "string", Data: st.CRS}

	spectra := make(map[string]standards.Spectrum, len(tpl.Spectra))
	for _, s := range tpl.Spectra {
		spectra[s.Column] = s
	}

	for _, c := range f.Columns {
		if c.Name == standards.TimeColumn {
			continue
		}
		if s, ok := spectra[c.Name]; ok {
			if c.Type != standards.TypeArray {
				continue
			}
			ds.DataVars[c.Name] = spectrumVariable(c, s, nd, nv)
			continue
		}
		if v, ok := vectorVariable(c); ok {
			ds.DataVars[c.Name] = v
		}
	}
	return ds, nil
}

func (b *Builder) attributes(f *standards.Frame, st domain.Station) map[string]string {
	attrs := st.Attributes()
	attrs["product_level"] = "L0B"
	attrs["source_data_format"] = "raw_data"
	attrs["obs_type"] = "raw"
	attrs["standards_version"] = f.Version
	attrs["generated_at"] = b.clock.Now().UTC().Format(time.RFC3339)
	return attrs
}

func addBinCoords(ds *Dataset, prefix, dim, units string, edges []float64) {
	centers, widths, lower, upper := standards.Bins(edges)
	attrs := map[string]any{"units": units}
	ds.Coords[dim] = Variable{Dims: []string{dim}, DType: "float64", Attrs: attrs, Data: centers}
	ds.Coords[prefix+"_bin_width"] = Variable{Dims: []string{dim}, DType: "float64", Attrs: attrs, Data: widths}
	ds.Coords[prefix+"_bin_lower"] = Variable{Dims: []string{dim}, DType: "float64", Attrs: attrs, Data: lower}
	ds.Coords[prefix+"_bin_upper"] = Variable{Dims: []string{dim}, DType: "float64", Attrs: attrs, Data: upper}
}

func fillAttrs(units string) map[string]any {
	attrs := map[string]any{"_FillValue": FillValue}
	if units != "" {
		attrs["units"] = units
	}
	return attrs
}

// vectorVariable converts a scalar-per-row column. String columns are not
// part of the gridded product.
func vectorVariable(c standards.Column) (Variable, bool) {
	dims := []string{standards.DimTime}
	switch c.Type {
	case standards.TypeFloat:
		data := make([]float64, len(c.Values))
		for i, v := range c.Values {
			data[i] = FillValue
			if f, ok := v.(float64); ok {
				data[i] = f
			}
		}
		return Variable{Dims: dims, DType: "float64", Attrs: fillAttrs(c.Units), Data: data}, true
	case standards.TypeInt:
		data := make([]int64, len(c.Values))
		for i, v := range c.Values {
			data[i] = int64(FillValue)
			if n, ok := v.(int64); ok {
				data[i] = n
			}
		}
		return Variable{Dims: dims, DType: "int64", Attrs: fillAttrs(c.Units), Data: data}, true
	case standards.TypeDuration:
		data := make([]float64, len(c.Values))
		for i, v := range c.Values {
			data[i] = FillValue
			if d, ok := v.(time.Duration); ok {
				data[i] = d.Seconds()
			}
		}
		return Variable{Dims: dims, DType: "float64", Attrs: fillAttrs("s"), Data: data}, true
	default:
		return Variable{}, false
	}
}

// spectrumVariable reshapes a raw array column. Arrays whose length does
// not match the template are filled.
func spectrumVariable(c standards.Column, s standards.Spectrum, nd, nv int) Variable {
	dims := slices.Concat([]string{standards.DimTime}, s.Dims)
	attrs := fillAttrs(c.Units)

	if len(s.Dims) == 1 {
		data := make([][]float64, len(c.Values))
		for i, v := range c.Values {
			arr, _ := v.([]float64)
			row := make([]float64, nd)
			for d := range nd {
				row[d] = FillValue
				if len(arr) == nd {
					row[d] = arr[d]
				}
			}
			data[i] = row
		}
		return Variable{Dims: dims, DType: "float64", Attrs: attrs, Data: data}
	}

	data := make([][][]float64, len(c.Values))
	for i, v := range c.Values {
		arr, _ := v.([]float64)
		ok := len(arr) == nd*nv
		block := make([][]float64, nd)
		for d := range nd {
			block[d] = make([]float64, nv)
			for vb := range nv {
				block[d][vb] = FillValue
				if ok {
					// diameter varies fastest in the raw list
					block[d][vb] = arr[vb*nd+d]
				}
			}
		}
		data[i] = block
	}
	return Variable{Dims: dims, DType: "float64", Attrs: attrs, Data: data}
}
