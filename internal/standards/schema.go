// Package standards holds the per-sensor canonical row schemas and dimension
// templates, and coerces adapter tables into typed frames.
package standards

import (
	"fmt"
	"slices"
	"sort"

	"github.com/couchcryptid/disdro-l0/internal/domain"
)

// Type is a canonical column type.
type Type string

const (
	TypeFloat    Type = "float"
	TypeInt      Type = "int"
	TypeString   Type = "string"
	TypeTime     Type = "time"
	TypeDuration Type = "duration"
	TypeArray    Type = "array"
)

// TimeColumn is the name of the column rows are ordered by.
const TimeColumn = "time"

// ColumnSpec declares one schema column. Length is the expected element
// count of an array column, 0 meaning any.
type ColumnSpec struct {
	Name   string
	Type   Type
	Length int
	Units  string
}

// Schema is the canonical row schema of one sensor model.
type Schema struct {
	SensorModel string
	Version     string
	Columns     []ColumnSpec
	NATokens    []string
	Template    *Template
}

// Column returns the spec of the named column.
func (s Schema) Column(name string) (ColumnSpec, bool) {
	i := slices.IndexFunc(s.Columns, func(c ColumnSpec) bool { return c.Name == name })
	if i < 0 {
		return ColumnSpec{}, false
	}
	return s.Columns[i], true
}

// Spectrum maps an array column onto template dimensions. A column over both
// dimensions is laid out with the diameter index varying fastest.
type Spectrum struct {
	Column string
	Dims   []string
}

// Dimension names shared with the gridded product.
const (
	DimTime     = "time"
	DimDiameter = "diameter_bin_center"
	DimVelocity = "velocity_bin_center"
)

// Template describes the binned dimensions of a sensor's spectra.
type Template struct {
	DiameterEdges []float64 // mm, len = classes+1
	VelocityEdges []float64 // m/s, len = classes+1
	Spectra       []Spectrum
	Required      []string
}

// DiameterBins returns the number of diameter classes.
func (t Template) DiameterBins() int { return max(len(t.DiameterEdges)-1, 0) }

// VelocityBins returns the number of velocity classes.
func (t Template) VelocityBins() int { return max(len(t.VelocityEdges)-1, 0) }

// Bins returns centers, widths, lower and upper bounds of a set of edges.
func Bins(edges []float64) (centers, widths, lower, upper []float64) {
	n := max(len(edges)-1, 0)
	centers = make([]float64, n)
	widths = make([]float64, n)
	lower = make([]float64, n)
	upper = make([]float64, n)
	for i := range n {
		lower[i], upper[i] = edges[i], edges[i+1]
		widths[i] = edges[i+1] - edges[i]
		centers[i] = edges[i] + widths[i]/2
	}
	return centers, widths, lower, upper
}

// Catalog is the set of known sensor schemas. It is read-only after
// construction.
type Catalog struct {
	schemas map[string]Schema
}

// NewCatalog indexes schemas by sensor model. A later schema replaces an
// earlier one with the same model.
func NewCatalog(schemas ...Schema) *Catalog {
	c := &Catalog{schemas: make(map[string]Schema, len(schemas))}
	for _, s := range schemas {
		c.schemas[s.SensorModel] = s
	}
	return c
}

// Known reports whether the sensor model has a schema.
func (c *Catalog) Known(sensorModel string) bool {
	_, ok := c.schemas[sensorModel]
	return ok
}

// Sensors returns the known sensor models, sorted.
func (c *Catalog) Sensors() []string {
	out := make([]string, 0, len(c.schemas))
	for k := range c.schemas {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Schema returns the schema of a sensor model.
func (c *Catalog) Schema(sensorModel string) (Schema, error) {
	s, ok := c.schemas[sensorModel]
	if !ok {
		return Schema{}, &domain.SchemaViolationError{
			SensorModel: sensorModel,
			Msg:         fmt.Sprintf("unknown sensor model, valid models are %v", c.Sensors()),
		}
	}
	return s, nil
}

// Template returns the dimension template of a sensor model.
func (c *Catalog) Template(sensorModel string) (Template, error) {
	s, err := c.Schema(sensorModel)
	if err != nil {
		return Template{}, err
	}
	if s.Template == nil {
		return Template{}, &domain.SchemaViolationError{SensorModel: sensorModel, Msg: "no dimension template"}
	}
	return *s.Template, nil
}
