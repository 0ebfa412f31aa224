// Package reader defines the contract every campaign adapter implements and
// the shared delimited-text parser most adapters are built from.
package reader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/couchcryptid/disdro-l0/internal/domain"
)

// Key identifies an adapter within the registry.
type Key struct {
	DataSource string
	Name       string
}

func (k Key) String() string { return k.DataSource + "/" + k.Name }

// ParseReference splits a "<data_source>/<adapter_name>" reference taken from
// a station descriptor.
func ParseReference(ref string) (Key, error) {
	if !strings.Contains(ref, "/") {
		return Key{}, domain.Configf("the reader %q reported in the metadata is not valid: it must follow the <DATA_SOURCE>/<READER_NAME> pattern", ref)
	}
	parts := strings.Split(ref, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Key{}, domain.Configf("the reader %q must be composed of exactly <DATA_SOURCE>/<READER_NAME>", ref)
	}
	return Key{DataSource: parts[0], Name: parts[1]}, nil
}

// Args is the fixed argument set passed to every adapter invocation.
type Args struct {
	RawDir        string
	ProcessedDir  string
	StationName   string
	Force         bool
	Verbose       bool
	Parallel      bool
	DebuggingMode bool
}

// ExpectedArguments returns the sorted names of the fixed argument set.
func ExpectedArguments() []string {
	return []string{
		"debugging_mode",
		"force",
		"parallel",
		"processed_dir",
		"raw_dir",
		"station_name",
		"verbose",
	}
}

// Request is one adapter invocation: the fixed arguments, the sorted raw
// files selected for the station and its descriptor.
type Request struct {
	Args
	Files   []string
	Station domain.Station
}

// Adapter converts the raw files of one station into a string table.
// Implementations must be safe for concurrent use by multiple stations.
type Adapter interface {
	Spec() Spec
	Read(ctx context.Context, req Request) (*domain.Table, error)
}

// Entry binds an adapter to its registry key.
type Entry struct {
	Key     Key
	Adapter Adapter
}

// LineDelimiter keeps each raw line whole in a single column.
const LineDelimiter = "\n"

// Spec is the adapter-local configuration value object.
type Spec struct {
	Glob      string   // raw file pattern relative to <raw_dir>/data/<station>
	Delimiter string   // single character, or LineDelimiter
	SkipRows  int      // header lines skipped at the top of every file
	Columns   []string // names assigned to the parsed fields
	NATokens  []string // adapter-specific missing markers, mapped to ""
	Encoding  string   // "", "utf-8" or "latin1"
}

// Validate checks the spec for internal consistency.
func (s Spec) Validate() error {
	var errs []error
	if s.Glob == "" {
		errs = append(errs, errors.New("glob pattern is empty"))
	} else if _, err := filepath.Match(s.Glob, ""); err != nil {
		errs = append(errs, fmt.Errorf("glob pattern %q: %w", s.Glob, err))
	}
	if s.Delimiter != LineDelimiter && len([]rune(s.Delimiter)) != 1 {
		errs = append(errs, fmt.Errorf("delimiter %q must be a single character", s.Delimiter))
	}
	if s.SkipRows < 0 {
		errs = append(errs, fmt.Errorf("skip rows %d is negative", s.SkipRows))
	}
	if len(s.Columns) == 0 {
		errs = append(errs, errors.New("no column names"))
	}
	if s.Delimiter == LineDelimiter && len(s.Columns) != 1 {
		errs = append(errs, fmt.Errorf("line delimiter requires exactly one column, got %d", len(s.Columns)))
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if c == "" {
			errs = append(errs, errors.New("empty column name"))
			continue
		}
		if seen[c] {
			errs = append(errs, fmt.Errorf("duplicate column %q", c))
		}
		seen[c] = true
	}
	switch strings.ToLower(s.Encoding) {
	case "", "utf-8", "utf8", "latin1", "iso-8859-1":
	default:
		errs = append(errs, fmt.Errorf("unsupported encoding %q", s.Encoding))
	}
	return errors.Join(errs...)
}

// ValidateSignature checks that an adapter honours the reader contract. The
// call shape is enforced by the Adapter interface; this validates the
// adapter's configuration.
func ValidateSignature(a Adapter) error {
	expected := ExpectedArguments()
	if a == nil {
		return domain.Configf("the reader is nil; it must be defined with the following arguments: %v", expected)
	}
	if err := a.Spec().Validate(); err != nil {
		return &domain.ConfigurationError{
			Msg: fmt.Sprintf("the reader must be defined with the following arguments: %v", expected),
			Err: err,
		}
	}
	return nil
}

// SortedFiles returns the files of dir matching the spec glob, sorted. In
// debugging mode only the first three are kept.
func SortedFiles(dir string, spec Spec, debugging bool) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, spec.Glob))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", spec.Glob, err)
	}
	slices.Sort(files)
	if debugging && len(files) > 3 {
		files = files[:3]
	}
	return files, nil
}
