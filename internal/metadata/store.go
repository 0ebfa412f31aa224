// Package metadata loads and validates station descriptors from
// <raw_dir>/metadata. Descriptors are read fresh on every Load.
package metadata

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/couchcryptid/disdro-l0/internal/domain"
	"github.com/couchcryptid/disdro-l0/internal/reader"
)

// DefaultCRS is used when a descriptor omits crs.
const DefaultCRS = "WGS84"

// Resolver resolves a descriptor's reader reference.
type Resolver interface {
	ResolveReference(ref string) (reader.Adapter, error)
}

// SensorCatalog reports whether a sensor model has standards.
type SensorCatalog interface {
	Known(sensorModel string) bool
}

type descriptor struct {
	StationName  string   `koanf:"station_name" validate:"required"`
	CampaignName string   `koanf:"campaign_name" validate:"required"`
	DataSource   string   `koanf:"data_source" validate:"required"`
	SensorName   string   `koanf:"sensor_name" validate:"required"`
	Reader       string   `koanf:"reader" validate:"required"`
	Latitude     *float64 `koanf:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude    *float64 `koanf:"longitude" validate:"required,gte=-180,lte=180"`
	Altitude     float64  `koanf:"altitude"`
	CRS          string   `koanf:"crs"`
	Title        string   `koanf:"title"`
	Institution  string   `koanf:"institution"`
	Authors      string   `koanf:"authors"`
	Country      string   `koanf:"country"`
	PlatformType string   `koanf:"platform_type"`
}

// Store reads station descriptors for one campaign.
type Store struct {
	rawDir   string
	resolver Resolver
	sensors  SensorCatalog
}

// NewStore creates a store over rawDir.
func NewStore(rawDir string, resolver Resolver, sensors SensorCatalog) *Store {
	return &Store{rawDir: rawDir, resolver: resolver, sensors: sensors}
}

// Path returns the descriptor path of a station, preferring .yml.
func (s *Store) Path(station string) string {
	dir := filepath.Join(s.rawDir, "metadata")
	yml := filepath.Join(dir, station+".yml")
	if fileExists(yml) {
		return yml
	}
	if alt := filepath.Join(dir, station+".yaml"); fileExists(alt) {
		return alt
	}
	return yml
}

// Load reads, validates and resolves the descriptor of a station.
func (s *Store) Load(station string) (domain.Station, error) {
	path := s.Path(station)
	if !fileExists(path) {
		return domain.Station{}, &domain.ConfigurationError{
			Msg: fmt.Sprintf("no metadata descriptor for station %s", station),
			Err: &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist},
		}
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return domain.Station{}, &domain.ConfigurationError{Msg: fmt.Sprintf("parse metadata %s", path), Err: err}
	}
	if !k.Exists("reader") {
		return domain.Station{}, domain.Configf("the reader is not specified in the metadata of station %s (%s)", station, path)
	}

	var d descriptor
	if err := k.Unmarshal("", &d); err != nil {
		return domain.Station{}, &domain.ConfigurationError{Msg: fmt.Sprintf("decode metadata %s", path), Err: err}
	}
	if err := validateDescriptor(&d); err != nil {
		return domain.Station{}, &domain.ConfigurationError{Msg: fmt.Sprintf("invalid metadata %s", path), Err: err}
	}
	if d.StationName != station {
		return domain.Station{}, domain.Configf("metadata %s declares station_name %q, expected %q", path, d.StationName, station)
	}
	if err := s.CheckReader(d.Reader); err != nil {
		return domain.Station{}, err
	}
	if s.sensors != nil && !s.sensors.Known(d.SensorName) {
		return domain.Station{}, domain.Configf("station %s: sensor_name %q has no L0 standards", station, d.SensorName)
	}

	crs := d.CRS
	if crs == "" {
		crs = DefaultCRS
	}
	return domain.Station{
		StationName:  d.StationName,
		CampaignName: d.CampaignName,
		DataSource:   d.DataSource,
		SensorName:   d.SensorName,
		Reader:       d.Reader,
		Latitude:     *d.Latitude,
		Longitude:    *d.Longitude,
		Altitude:     d.Altitude,
		CRS:          crs,
		Title:        d.Title,
		Institution:  d.Institution,
		Authors:      d.Authors,
		Country:      d.Country,
		PlatformType: d.PlatformType,
	}, nil
}

// CheckReader verifies that a reader reference resolves to a registered
// adapter.
func (s *Store) CheckReader(ref string) error {
	_, err := s.resolver.ResolveReference(ref)
	return err
}

// List returns the station names that have a directory under
// <raw_dir>/data, sorted.
func (s *Store) List() ([]string, error) {
	dir := filepath.Join(s.rawDir, "data")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.ConfigurationError{Msg: fmt.Sprintf("raw data directory %s does not exist", dir), Err: err}
		}
		return nil, fmt.Errorf("list stations: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
