// Package gridded builds the self-describing array product from a validated
// frame. The dataset layout mirrors a netCDF/xarray dataset: named
// dimensions, coordinate variables, data variables and global attributes.
package gridded

import (
	"fmt"

	"github.com/couchcryptid/disdro-l0/internal/standards"
)

// FillValue marks missing numeric values.
const FillValue = standards.FillValue

// Variable is one named array with its dimensions.
type Variable struct {
	Dims  []string       `json:"dims"`
	DType string         `json:"dtype"`
	Attrs map[string]any `json:"attrs,omitempty"`
	Data  any            `json:"data"`
}

// Dataset is the gridded product. Maps are encoded with sorted keys.
type Dataset struct {
	Dims     map[string]int      `json:"dims"`
	Coords   map[string]Variable `json:"coords"`
	DataVars map[string]Variable `json:"data_vars"`
	Attrs    map[string]string   `json:"attrs"`
}

// String summarizes the dataset shape for logs.
func (d *Dataset) String() string {
	return fmt.Sprintf("dataset(time=%d, diameter=%d, velocity=%d, vars=%d)",
		d.Dims[standards.DimTime], d.Dims[standards.DimDiameter], d.Dims[standards.DimVelocity], len(d.DataVars))
}
