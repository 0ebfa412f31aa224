package main

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Text(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(&stdout, &stderr, false, "")

	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "EPFL: EPFL_ROOF_2008\n")
	assert.Contains(t, stdout.String(), "GPM: GCPEX\n")
	assert.Contains(t, stderr.String(), "PASS")
}

func TestRun_JSONFiltered(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(&stdout, &stderr, true, "NCAR")

	require.Equal(t, 0, code, stderr.String())
	var got map[string][]string
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, map[string][]string{"NCAR": {"CCOPE_2015"}}, got)
}

func TestRun_UnknownDataSource(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(&stdout, &stderr, false, "NASA")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "NASA")
}
