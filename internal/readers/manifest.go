// Package readers lists the built-in campaign adapters. Each adapter lives in
// a sub-package named after its data source and is registered under the
// upper-case data source and the campaign name.
package readers

import (
	"github.com/couchcryptid/disdro-l0/internal/reader"
	"github.com/couchcryptid/disdro-l0/internal/readers/epfl"
	"github.com/couchcryptid/disdro-l0/internal/readers/gpm"
	"github.com/couchcryptid/disdro-l0/internal/readers/ncar"
)

// Manifest returns the registry entries of every built-in adapter.
func Manifest() []reader.Entry {
	return []reader.Entry{
		{Key: reader.Key{DataSource: "EPFL", Name: "EPFL_ROOF_2008"}, Adapter: epfl.Roof2008()},
		{Key: reader.Key{DataSource: "GPM", Name: "GCPEX"}, Adapter: gpm.GCPEX()},
		{Key: reader.Key{DataSource: "NCAR", Name: "CCOPE_2015"}, Adapter: ncar.CCOPE2015()},
	}
}
