package registry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disdro-l0/internal/domain"
	"github.com/couchcryptid/disdro-l0/internal/reader"
)

type fakeAdapter struct{ spec reader.Spec }

func (f fakeAdapter) Spec() reader.Spec { return f.spec }
func (f fakeAdapter) Read(context.Context, reader.Request) (*domain.Table, error) {
	return domain.NewTable(f.spec.Columns...), nil
}

var validSpec = reader.Spec{Glob: "*.txt", Delimiter: ",", Columns: []string{"time"}}

func entry(ds, name string) reader.Entry {
	return reader.Entry{Key: reader.Key{DataSource: ds, Name: name}, Adapter: fakeAdapter{spec: validSpec}}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New([]reader.Entry{
		entry("EPFL", "EPFL_ROOF_2008"),
		entry("EPFL", "DAVOS_2009"),
		entry("NCAR", "CCOPE_2015"),
	})
	require.NoError(t, err)
	return r
}

func requireConfigErr(t *testing.T, err error) {
	t.Helper()
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestNew_RejectsBadManifest(t *testing.T) {
	tests := map[string][]reader.Entry{
		"empty name":   {entry("EPFL", "")},
		"slash":        {entry("EPFL", "A/B")},
		"nil adapter":  {{Key: reader.Key{DataSource: "EPFL", Name: "X"}}},
		"duplicate":    {entry("EPFL", "X"), entry("EPFL", "X")},
		"empty source": {entry("", "X")},
	}
	for name, manifest := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New(manifest)
			requireConfigErr(t, err)
		})
	}
}

func TestResolve(t *testing.T) {
	r := newTestRegistry(t)

	t.Run("known", func(t *testing.T) {
		a, err := r.Resolve("EPFL", "EPFL_ROOF_2008")
		require.NoError(t, err)
		assert.Equal(t, validSpec, a.Spec())
	})

	t.Run("unknown data source lists sources", func(t *testing.T) {
		_, err := r.Resolve("MARS", "X")
		requireConfigErr(t, err)
		assert.Contains(t, err.Error(), "[EPFL NCAR]")
	})

	t.Run("unknown name lists readers", func(t *testing.T) {
		_, err := r.Resolve("EPFL", "NOPE")
		requireConfigErr(t, err)
		assert.Contains(t, err.Error(), "[DAVOS_2009 EPFL_ROOF_2008]")
	})
}

func TestResolveReference(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.ResolveReference("NCAR/CCOPE_2015")
	require.NoError(t, err)

	_, err = r.ResolveReference("CCOPE_2015")
	requireConfigErr(t, err)
	assert.Contains(t, err.Error(), `"CCOPE_2015"`)
}

func TestListAvailable(t *testing.T) {
	r := newTestRegistry(t)

	all, err := r.ListAvailable()
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"EPFL": {"DAVOS_2009", "EPFL_ROOF_2008"},
		"NCAR": {"CCOPE_2015"},
	}, all)

	one, err := r.ListAvailable("NCAR")
	require.NoError(t, err)
	assert.Len(t, one, 1)

	_, err = r.ListAvailable("MARS")
	requireConfigErr(t, err)
}

func TestCheckAll(t *testing.T) {
	r, err := New([]reader.Entry{
		entry("EPFL", "GOOD"),
		{Key: reader.Key{DataSource: "EPFL", Name: "BAD"}, Adapter: fakeAdapter{spec: reader.Spec{Delimiter: ","}}},
	})
	require.NoError(t, err)

	err = r.CheckAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid reader for EPFL/BAD")
	assert.NotContains(t, err.Error(), "EPFL/GOOD")

	assert.NoError(t, newTestRegistry(t).CheckAll())
}

func TestConcurrentLookups(t *testing.T) {
	r := newTestRegistry(t)
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.ResolveReference("EPFL/EPFL_ROOF_2008")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
