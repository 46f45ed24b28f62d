// Copyright KubeArchive Authors
// SPDX-License-Identifier: Apache-2.0

package merge

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubearchive/loadgen/pkg/stats"
)

const (
	cpuCSVRunOne = `timestamp,kubearchive.api,kubearchive.sink
1717000000,0.1,0.2
1717000015,0.3,0.4
`
	// a later run where only the api was scraped
	cpuCSVRunTwo = `timestamp,kubearchive.api
1717100000,0.5
1717100015,0.7
`
	readerReport = `{
		"latencies": {"min": 1000000, "mean": 2500000, "95th": 4000000, "max": 9000000},
		"rate": 100.04,
		"success": 0.998,
		"requests": 6000
	}`
)

func writeRun(t *testing.T, dir, id string, files map[string]string) {
	t.Helper()
	runDir := filepath.Join(dir, id)
	require.NoError(t, os.MkdirAll(runDir, 0o750))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(runDir, name), []byte(content), 0o600))
	}
}

func TestDiscoverRuns(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir, "20240517-120000", nil)
	writeRun(t, dir, "20240516-120000", nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	runs, err := DiscoverRuns(dir)
	require.NoError(t, err)

	require.Len(t, runs, 2)
	assert.Equal(t, "20240516-120000", runs[0].ID)
	assert.Equal(t, "20240517-120000", runs[1].ID)
}

func TestUsageTrendSkipsRunsWithoutFile(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir, "run-1", map[string]string{"cpu.csv": cpuCSVRunOne})
	writeRun(t, dir, "run-2", nil) // failed run, no artifacts
	writeRun(t, dir, "run-3", map[string]string{"cpu.csv": cpuCSVRunTwo})

	runs, err := DiscoverRuns(dir)
	require.NoError(t, err)
	rows, err := UsageTrend(runs, "cpu.csv")
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "run-1", rows[0].RunID)
	assert.Equal(t, 0.2, rows[0].Components["kubearchive.api"].Mean)
	assert.Equal(t, "run-3", rows[1].RunID)
	assert.Equal(t, 0.6, rows[1].Components["kubearchive.api"].Mean)
}

func TestWriteUsageTrendLeavesGapsEmpty(t *testing.T) {
	rows := []UsageRow{
		{RunID: "run-1", Components: map[string]stats.Summary{
			"kubearchive.api":  {Min: 0.1, Mean: 0.2, Median: 0.2, Max: 0.3},
			"kubearchive.sink": {Min: 0.2, Mean: 0.3, Median: 0.3, Max: 0.4},
		}},
		{RunID: "run-3", Components: map[string]stats.Summary{
			"kubearchive.api": {Min: 0.5, Mean: 0.6, Median: 0.6, Max: 0.7},
		}},
	}

	var out bytes.Buffer
	require.NoError(t, WriteUsageTrend(&out, rows, stats.MetricCPU))

	assert.Equal(t,
		"run,kubearchive.api.min,kubearchive.api.mean,kubearchive.api.median,kubearchive.api.max,"+
			"kubearchive.sink.min,kubearchive.sink.mean,kubearchive.sink.median,kubearchive.sink.max\n"+
			"run-1,0.100000,0.200000,0.200000,0.300000,0.200000,0.300000,0.300000,0.400000\n"+
			"run-3,0.500000,0.600000,0.600000,0.700000,,,,\n",
		out.String())
}

func TestWriteUsageTrendMemoryInMB(t *testing.T) {
	rows := []UsageRow{
		{RunID: "run-1", Components: map[string]stats.Summary{
			"kubearchive.sink": {Min: 4e6, Mean: 6e6, Median: 6e6, Max: 8e6},
		}},
	}

	var out bytes.Buffer
	require.NoError(t, WriteUsageTrend(&out, rows, stats.MetricMemory))
	assert.Contains(t, out.String(), "run-1,4,6,6,8\n")
}

func TestRequestTrend(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir, "run-1", map[string]string{"reader.json": readerReport})
	writeRun(t, dir, "run-2", nil)

	runs, err := DiscoverRuns(dir)
	require.NoError(t, err)
	rows, err := RequestTrend(runs, "reader.json")
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "run-1", rows[0].RunID)
	assert.Equal(t, uint64(6000), rows[0].Requests)
	assert.Equal(t, 100.04, rows[0].Rate)

	var out bytes.Buffer
	require.NoError(t, WriteRequestTrend(&out, rows))
	assert.Equal(t,
		"run,requests,rate,success,min,mean,p95,max\n"+
			"run-1,6000,100.04,0.9980,1.000,2.500,4.000,9.000\n",
		out.String())
}

func TestRequestTrendMalformedReport(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir, "run-1", map[string]string{"reader.json": "{not json"})

	runs, err := DiscoverRuns(dir)
	require.NoError(t, err)
	_, err = RequestTrend(runs, "reader.json")
	require.Error(t, err)
}
