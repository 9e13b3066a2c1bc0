package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := makeapp(&out)
	err := app.Run(append([]string{"steerflow"}, args...))
	return out.String(), err
}

func TestRunPrintsHashes(t *testing.T) {
	out, err := runApp(t, "run", "-log-level", "error", "-frames", "20",
		"-scenario", "testdata/chase.yaml", "testdata/chase.yaml")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, lines[0], lines[1])

	fields := strings.Split(lines[0], "\t")
	require.Len(t, fields, 3)
	assert.Equal(t, "chase", fields[0])
	assert.Equal(t, "20", fields[1])
	assert.Len(t, fields[2], 16)
}

func TestRunFrameCountAffectsHash(t *testing.T) {
	short, err := runApp(t, "run", "-log-level", "error", "-frames", "5", "testdata/chase.yaml")
	require.NoError(t, err)
	long, err := runApp(t, "run", "-log-level", "error", "-frames", "50", "testdata/chase.yaml")
	require.NoError(t, err)

	assert.NotEqual(t, strings.Split(short, "\t")[2], strings.Split(long, "\t")[2])
}

func TestRunErrors(t *testing.T) {
	_, err := runApp(t, "run")
	assert.Error(t, err)

	_, err = runApp(t, "run", "-log-level", "error", "testdata/broken.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")

	_, err = runApp(t, "run", "-log-level", "error", "testdata/missing.yaml")
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	out, err := runApp(t, "check", "testdata/chase.yaml")
	require.NoError(t, err)
	assert.Equal(t, "ok\ttestdata/chase.yaml\n", out)

	out, err = runApp(t, "check", "testdata/chase.yaml", "testdata/broken.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Contains(t, out, "FAIL\ttestdata/broken.yaml")
	assert.Contains(t, out, "spectre")
}
