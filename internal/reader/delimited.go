package reader

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/couchcryptid/disdro-l0/internal/domain"
)

// SanitizeFunc reshapes the table parsed from one raw file: drop helper
// columns, derive time, split packed fields. It runs once per file.
type SanitizeFunc func(*domain.Table) (*domain.Table, error)

const maxLineBytes = 4 << 20

// Delimited is a configurable text adapter: one record per line, fields split
// on a single-character delimiter. Lines whose field count differs from the
// declared columns are skipped and counted.
type Delimited struct {
	spec     Spec
	sanitize SanitizeFunc
	na       map[string]bool
}

// NewDelimited creates a delimited adapter. sanitize may be nil.
func NewDelimited(spec Spec, sanitize SanitizeFunc) *Delimited {
	na := make(map[string]bool, len(spec.NATokens))
	for _, tok := range spec.NATokens {
		na[tok] = true
	}
	return &Delimited{spec: spec, sanitize: sanitize, na: na}
}

func (d *Delimited) Spec() Spec { return d.spec }

// Read parses every file of the request in order and concatenates the
// sanitized per-file tables.
func (d *Delimited) Read(ctx context.Context, req Request) (*domain.Table, error) {
	var out *domain.Table
	for _, path := range req.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tbl, err := d.readFile(path)
		if err != nil {
			return nil, err
		}
		if d.sanitize != nil {
			skipped := tbl.Skipped
			if tbl, err = d.sanitize(tbl); err != nil {
				return nil, fmt.Errorf("sanitize %s: %w", path, err)
			}
			if tbl.Skipped < skipped {
				tbl.Skipped = skipped
			}
		}
		if out == nil {
			out = tbl
			continue
		}
		if err := out.Append(tbl); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if out == nil {
		out = domain.NewTable(d.spec.Columns...)
	}
	return out, nil
}

func (d *Delimited) readFile(path string) (*domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}
	switch strings.ToLower(d.spec.Encoding) {
	case "latin1", "iso-8859-1":
		r = charmap.ISO8859_1.NewDecoder().Reader(r)
	}

	tbl := domain.NewTable(d.spec.Columns...)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		if line <= d.spec.SkipRows {
			continue
		}
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields, ok := d.split(text)
		if !ok || len(fields) != len(d.spec.Columns) {
			tbl.Skipped++
			continue
		}
		for i, v := range fields {
			v = strings.TrimSpace(v)
			if d.na[v] {
				v = ""
			}
			fields[i] = v
		}
		tbl.Rows = append(tbl.Rows, fields)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return tbl, nil
}

func (d *Delimited) split(line string) ([]string, bool) {
	if d.spec.Delimiter == LineDelimiter {
		return []string{line}, true
	}
	cr := csv.NewReader(strings.NewReader(line))
	cr.Comma = []rune(d.spec.Delimiter)[0]
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	fields, err := cr.Read()
	if err != nil {
		return nil, false
	}
	return slices.Clip(fields), true
}
