package product

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/couchcryptid/disdro-l0/internal/gridded"
)

// WriteGridded writes the dataset as indented JSON. Map keys are sorted by
// the encoder, so identical datasets produce identical bytes.
func (s *Store) WriteGridded(path string, ds *gridded.Dataset, force bool) error {
	return s.writeAtomic(path, force, func(w io.Writer) error {
		data, err := json.MarshalIndent(ds, "", "  ")
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		_, err = w.Write([]byte("\n"))
		return err
	})
}
