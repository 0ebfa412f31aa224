// Command checkreaders verifies that every registered reader honours the
// adapter contract and prints the available readers per data source.
// It exits non-zero when any reader is invalid.
//
// Usage:
//
//	go run ./cmd/checkreaders [-json] [-data-source EPFL,GPM]
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/couchcryptid/disdro-l0/internal/readers"
	"github.com/couchcryptid/disdro-l0/internal/registry"
)

func main() {
	asJSON := flag.Bool("json", false, "print the available readers as JSON")
	sources := flag.String("data-source", "", "comma-separated data sources to list (default: all)")
	flag.Parse()

	os.Exit(run(os.Stdout, os.Stderr, *asJSON, *sources))
}

func run(stdout, stderr io.Writer, asJSON bool, sources string) int {
	reg, err := registry.New(readers.Manifest())
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: build registry: %v\n", err)
		return 1
	}

	var filter []string
	if sources != "" {
		filter = strings.Split(sources, ",")
	}
	available, err := reg.ListAvailable(filter...)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return 1
	}

	if asJSON {
		data, err := json.MarshalIndent(available, "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, "FATAL: encode: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, string(data))
	} else {
		for _, ds := range reg.DataSources() {
			names, ok := available[ds]
			if !ok {
				continue
			}
			fmt.Fprintf(stdout, "%s: %s\n", ds, strings.Join(names, ", "))
		}
	}

	if err := reg.CheckAll(); err != nil {
		fmt.Fprintf(stderr, "FAIL:\n%v\n", err)
		return 1
	}
	fmt.Fprintln(stderr, "PASS: all readers are valid")
	return 0
}
