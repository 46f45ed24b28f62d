// Copyright KubeArchive Authors
// SPDX-License-Identifier: Apache-2.0

// Package merge combines the artifacts of past load runs into trend
// CSVs, one row per run, so resource usage and request latencies can
// be tracked across runs.
//
// Every run contributes one directory under the artifacts root,
// holding the usage CSVs written by cmd/metrics and, optionally, the
// JSON reports saved from cmd/loadgen. Directory names order the
// trend, name them by timestamp or CI run id.
package merge

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/kubearchive/loadgen/pkg/stats"
)

// Run is one past run's artifact directory.
type Run struct {
	ID   string
	Path string
}

// DiscoverRuns lists the run directories under dir, ordered by name.
func DiscoverRuns(dir string) ([]Run, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading artifacts directory: %w", err)
	}

	runs := []Run{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		runs = append(runs, Run{ID: entry.Name(), Path: filepath.Join(dir, entry.Name())})
	}
	return runs, nil
}

// UsageRow is one run's per-component usage summary.
type UsageRow struct {
	RunID      string
	Components map[string]stats.Summary
}

// UsageTrend summarizes the named usage CSV across all runs. Runs
// without the file are skipped, failed runs leave no artifacts behind.
func UsageTrend(runs []Run, file string) ([]UsageRow, error) {
	rows := []UsageRow{}
	for _, run := range runs {
		fh, err := os.Open(filepath.Join(run.Path, file))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("opening %q of run %q: %w", file, run.ID, err)
		}

		series, err := stats.ReadSeries(fh)
		fh.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %q of run %q: %w", file, run.ID, err)
		}

		summaries, err := stats.SummarizeSeries(series)
		if err != nil {
			return nil, fmt.Errorf("summarizing %q of run %q: %w", file, run.ID, err)
		}

		rows = append(rows, UsageRow{RunID: run.ID, Components: summaries})
	}
	return rows, nil
}

// WriteUsageTrend writes one row per run: the run id followed by
// min/mean/median/max per component, components in sorted order across
// the union of all runs. Cells of components a run did not report stay
// empty. Memory values are reported in MB, cpu values as-is.
func WriteUsageTrend(w io.Writer, rows []UsageRow, metric stats.Metric) error {
	components := []string{}
	seen := map[string]bool{}
	for _, row := range rows {
		for name := range row.Components {
			if !seen[name] {
				seen[name] = true
				components = append(components, name)
			}
		}
	}
	slices.Sort(components)

	fmt.Fprint(w, "run")
	for _, name := range components {
		fmt.Fprintf(w, ",%s.min,%s.mean,%s.median,%s.max", name, name, name, name)
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		fmt.Fprint(w, row.RunID)
		for _, name := range components {
			summary, ok := row.Components[name]
			if !ok {
				fmt.Fprint(w, ",,,,")
				continue
			}
			if metric == stats.MetricMemory {
				fmt.Fprintf(w, ",%.0f,%.0f,%.0f,%.0f", summary.Min/1e6, summary.Mean/1e6, summary.Median/1e6, summary.Max/1e6)
			} else {
				fmt.Fprintf(w, ",%f,%f,%f,%f", summary.Min, summary.Mean, summary.Median, summary.Max)
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}

// RequestRow is one run's request-level metrics, taken from a saved
// vegeta JSON report.
type RequestRow struct {
	RunID    string
	Requests uint64
	Rate     float64
	Success  float64
	Min      time.Duration
	Mean     time.Duration
	P95      time.Duration
	Max      time.Duration
}

// vegeta reports latencies as nanosecond numbers.
type vegetaReport struct {
	Latencies struct {
		Min  time.Duration `json:"min"`
		Mean time.Duration `json:"mean"`
		P95  time.Duration `json:"95th"`
		Max  time.Duration `json:"max"`
	} `json:"latencies"`
	Rate     float64 `json:"rate"`
	Success  float64 `json:"success"`
	Requests uint64  `json:"requests"`
}

// RequestTrend reads the named vegeta JSON report from every run.
// Runs without the file are skipped.
func RequestTrend(runs []Run, file string) ([]RequestRow, error) {
	rows := []RequestRow{}
	for _, run := range runs {
		raw, err := os.ReadFile(filepath.Join(run.Path, file))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("opening %q of run %q: %w", file, run.ID, err)
		}

		var report vegetaReport
		if err := json.Unmarshal(raw, &report); err != nil {
			return nil, fmt.Errorf("deserializing %q of run %q: %w", file, run.ID, err)
		}

		rows = append(rows, RequestRow{
			RunID:    run.ID,
			Requests: report.Requests,
			Rate:     report.Rate,
			Success:  report.Success,
			Min:      report.Latencies.Min,
			Mean:     report.Latencies.Mean,
			P95:      report.Latencies.P95,
			Max:      report.Latencies.Max,
		})
	}
	return rows, nil
}

// WriteRequestTrend writes one row per run, latencies in milliseconds.
func WriteRequestTrend(w io.Writer, rows []RequestRow) error {
	fmt.Fprintln(w, "run,requests,rate,success,min,mean,p95,max")
	for _, row := range rows {
		fmt.Fprintf(w, "%s,%d,%.2f,%.4f,%s,%s,%s,%s\n",
			row.RunID, row.Requests, row.Rate, row.Success,
			millis(row.Min), millis(row.Mean), millis(row.P95), millis(row.Max))
	}
	return nil
}

func millis(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 3, 64)
}
