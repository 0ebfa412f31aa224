// Command genraw writes a synthetic raw campaign for the built-in readers:
// gzipped EPFL roof logs, GCPEx packed telegrams and one metadata descriptor
// per station. The output is deterministic for a given seed.
//
// Usage:
//
//	go run ./cmd/genraw -out /tmp/raw -days 2 -rows 60
package main

import (
	"compress/gzip"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"
)

const (
	diameterBins = 32
	velocityBins = 32
)

var baseDate = time.Date(2008, time.January, 1, 0, 0, 0, 0, time.UTC)

// station is one synthetic station and the reader that parses it.
type station struct {
	name       string
	campaign   string
	dataSource string
	sensor     string
	reader     string
	lat, lon   float64
	write      func(dir string, day time.Time, rows int, rng *rand.Rand) error
}

var stations = []station{
	{
		name: "EPFL_ROOF_01", campaign: "EPFL_ROOF_2008", dataSource: "EPFL",
		sensor: "OTT_Parsivel", reader: "EPFL/EPFL_ROOF_2008",
		lat: 46.5211, lon: 6.5662,
		write: writeEPFLDay,
	},
	{
		name: "GCPEX_01", campaign: "GCPEX", dataSource: "GPM",
		sensor: "OTT_Parsivel2", reader: "GPM/GCPEX",
		lat: 44.2311, lon: -79.7806,
		write: writeGCPEXDay,
	},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "raw campaign directory to create")
	days := flag.Int("days", 1, "number of daily files per station")
	rows := flag.Int("rows", 60, "records per daily file")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if err := generate(*out, *days, *rows, *seed); err != nil {
		return err
	}
	fmt.Printf("wrote %d stations x %d days to %s\n", len(stations), *days, *out)
	return nil
}

func generate(out string, days, rows int, seed uint64) error {
	if days < 1 || rows < 1 {
		return fmt.Errorf("days and rows must be positive")
	}
	for _, st := range stations {
		rng := rand.New(rand.NewPCG(seed, uint64(len(st.name))))
		dir := filepath.Join(out, "data", st.name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		for d := range days {
			if err := st.write(dir, baseDate.AddDate(0, 0, d), rows, rng); err != nil {
				return fmt.Errorf("station %s: %w", st.name, err)
			}
		}
		if err := writeDescriptor(out, st); err != nil {
			return fmt.Errorf("station %s: %w", st.name, err)
		}
	}
	return nil
}

func writeDescriptor(out string, st station) error {
	k := koanf.New(".")
	for key, val := range map[string]any{
		"station_name":  st.name,
		"campaign_name": st.campaign,
		"data_source":   st.dataSource,
		"sensor_name":   st.sensor,
		"reader":        st.reader,
		"latitude":      st.lat,
		"longitude":     st.lon,
		"altitude":      400.0,
		"title":         "Synthetic " + st.campaign + " station",
		"institution":   "disdro-l0",
	} {
		if err := k.Set(key, val); err != nil {
			return err
		}
	}
	data, err := k.Marshal(yaml.Parser())
	if err != nil {
		return fmt.Errorf("marshal descriptor: %w", err)
	}
	dir := filepath.Join(out, "metadata")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, st.name+".yml"), data, 0o644)
}

// writeEPFLDay writes one gzipped day with the four datalogger header lines.
func writeEPFLDay(dir string, day time.Time, rows int, rng *rand.Rand) error {
	path := filepath.Join(dir, day.Format("20060102")+".dat.gz")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	header := `"TOA5","roof","CR1000"` + "\n" + `"TIMESTAMP","RECORD"` + "\n" + `"TS","RN"` + "\n" + `"",""` + "\n"
	if _, err := io.WriteString(gz, header); err != nil {
		return err
	}
	for i := range rows {
		ts := day.Add(time.Duration(i) * 30 * time.Second)
		counts := spectrum(rng)
		fields := []string{
			ts.Format("2006-01-02 15:04:05"),
			strconv.Itoa(i),
			fmtFloat(20 + rng.Float64()),
			"12.9",
			fmtFloat(rng.Float64() * 5),
			fmtFloat(float64(i) * 0.01),
			"61",
			"58",
			fmtFloat(10 + rng.Float64()*20),
			"9999",
			"15000",
			strconv.Itoa(sum(counts)),
			"18",
			"0.00",
			"23.9",
			"0",
			fmtFloat(float64(i) * 0.01),
			"dbg",
			quoted(floats(rng, diameterBins)),
			quoted(floats(rng, diameterBins)),
			quoted(ints(counts)),
			"na",
		}
		if _, err := io.WriteString(gz, strings.Join(fields, ",")+"\n"); err != nil {
			return err
		}
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return f.Close()
}

// writeGCPEXDay writes one day of packed telegrams. Every tenth record is
// truncated the way a dropped serial line looks.
func writeGCPEXDay(dir string, day time.Time, rows int, rng *rand.Rand) error {
	var b strings.Builder
	for i := range rows {
		ts := day.Add(time.Duration(i) * time.Minute)
		if i > 0 && i%10 == 0 {
			fmt.Fprintf(&b, "%s;450123,0\n", ts.Format("20060102150405"))
			continue
		}
		counts := spectrum(rng)
		fields := []string{
			"450123",
			"0",
			fmtFloat(-2 + rng.Float64()),
			strconv.Itoa(sum(counts)),
			fmtFloat(rng.Float64() * 3),
			fmtFloat(5 + rng.Float64()*20),
			"9999",
			"71",
			"73",
			ints(counts) + ",",
		}
		fmt.Fprintf(&b, "%s;%s\n", ts.Format("20060102150405"), strings.Join(fields, ","))
	}
	return os.WriteFile(filepath.Join(dir, "GCPEX_01_"+day.Format("20060102")+".txt"), []byte(b.String()), 0o644)
}

// spectrum returns drop counts with the diameter index varying fastest.
func spectrum(rng *rand.Rand) []int {
	counts := make([]int, diameterBins*velocityBins)
	for v := range velocityBins {
		for d := range diameterBins {
			if d < 12 && v < 14 && rng.IntN(4) == 0 {
				counts[v*diameterBins+d] = rng.IntN(5)
			}
		}
	}
	return counts
}

func sum(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}

func ints(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}

func floats(rng *rand.Rand, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmtFloat(rng.Float64() * 2)
	}
	return strings.Join(parts, ",")
}

func fmtFloat(f float64) string { return strconv.FormatFloat(f, 'f', 3, 64) }

func quoted(s string) string { return `"` + s + `"` }
