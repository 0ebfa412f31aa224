// Package registry resolves "<data_source>/<adapter_name>" references to
// adapters. The lookup table is built once from a manifest and is read-only
// afterwards, so concurrent lookups need no locking.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/couchcryptid/disdro-l0/internal/domain"
	"github.com/couchcryptid/disdro-l0/internal/reader"
)

// Registry maps data sources to their named adapters.
type Registry struct {
	adapters map[string]map[string]reader.Adapter
}

// New builds the registry from a manifest. Empty or slash-bearing key parts,
// duplicate keys and nil adapters are rejected.
func New(manifest []reader.Entry) (*Registry, error) {
	r := &Registry{adapters: make(map[string]map[string]reader.Adapter)}
	for _, e := range manifest {
		ds, name := e.Key.DataSource, e.Key.Name
		switch {
		case ds == "" || name == "":
			return nil, domain.Configf("manifest entry %q has an empty data source or reader name", e.Key)
		case strings.Contains(ds, "/") || strings.Contains(name, "/"):
			return nil, domain.Configf("manifest entry %q must not contain '/' in its parts", e.Key)
		case e.Adapter == nil:
			return nil, domain.Configf("manifest entry %q has no adapter", e.Key)
		}
		if r.adapters[ds] == nil {
			r.adapters[ds] = make(map[string]reader.Adapter)
		}
		if _, dup := r.adapters[ds][name]; dup {
			return nil, domain.Configf("reader %q is registered twice", e.Key)
		}
		r.adapters[ds][name] = e.Adapter
	}
	return r, nil
}

// DataSources returns the registered data sources, sorted.
func (r *Registry) DataSources() []string {
	out := make([]string, 0, len(r.adapters))
	for ds := range r.adapters {
		out = append(out, ds)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) names(ds string) []string {
	out := make([]string, 0, len(r.adapters[ds]))
	for name := range r.adapters[ds] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the adapter registered under dataSource/name.
func (r *Registry) Resolve(dataSource, name string) (reader.Adapter, error) {
	byName, ok := r.adapters[dataSource]
	if !ok {
		return nil, domain.Configf("data source %q has no readers, available data sources are %v", dataSource, r.DataSources())
	}
	a, ok := byName[name]
	if !ok {
		return nil, domain.Configf("reader %q is not available for data source %q, valid readers are %v", name, dataSource, r.names(dataSource))
	}
	return a, nil
}

// ResolveReference resolves a descriptor reference such as "EPFL/EPFL_ROOF_2008".
func (r *Registry) ResolveReference(ref string) (reader.Adapter, error) {
	key, err := reader.ParseReference(ref)
	if err != nil {
		return nil, err
	}
	return r.Resolve(key.DataSource, key.Name)
}

// ListAvailable returns the sorted reader names per data source. With no
// arguments every data source is listed.
func (r *Registry) ListAvailable(dataSources ...string) (map[string][]string, error) {
	if len(dataSources) == 0 {
		dataSources = r.DataSources()
	}
	out := make(map[string][]string, len(dataSources))
	for _, ds := range dataSources {
		if _, ok := r.adapters[ds]; !ok {
			return nil, domain.Configf("data source %q has no readers, available data sources are %v", ds, r.DataSources())
		}
		out[ds] = r.names(ds)
	}
	return out, nil
}

// CheckAll validates every registered adapter against the reader contract
// and joins the failures.
func (r *Registry) CheckAll() error {
	var errs []error
	for _, ds := range r.DataSources() {
		for _, name := range r.names(ds) {
			if err := reader.ValidateSignature(r.adapters[ds][name]); err != nil {
				errs = append(errs, fmt.Errorf("Invalid reader for %s/%s: %w", ds, name, err))
			}
		}
	}
	return errors.Join(errs...)
}
