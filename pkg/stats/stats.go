// Copyright KubeArchive Authors
// SPDX-License-Identifier: Apache-2.0

// Package stats summarizes the resource usage CSVs collected during a
// load run into per-component aggregates.
package stats

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
)

// Metric selects the unit handling when rendering.
type Metric string

const (
	MetricCPU    Metric = "cpu"
	MetricMemory Metric = "memory"
)

// Format selects the output representation.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Summary aggregates one component's samples.
type Summary struct {
	Min    float64 `json:"min"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// Summarize computes the aggregates of values. The input slice is left
// untouched.
func Summarize(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, errors.New("no samples to summarize")
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}

	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return Summary{
		Min:    sorted[0],
		Mean:   sum / float64(n),
		Median: median,
		Max:    sorted[n-1],
	}, nil
}

// ReadSeries parses a usage CSV into one sample series per column. The
// first column is the sample timestamp and is skipped; the header row
// names the remaining columns.
func ReadSeries(r io.Reader) (map[string][]float64, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	series := map[string][]float64{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV record: %w", err)
		}

		for ix, field := range record {
			if ix == 0 {
				continue // timestamp column
			}
			value, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("converting %q to float64: %w", field, err)
			}
			series[header[ix]] = append(series[header[ix]], value)
		}
	}

	return series, nil
}

// SummarizeSeries aggregates every series.
func SummarizeSeries(series map[string][]float64) (map[string]Summary, error) {
	summaries := make(map[string]Summary, len(series))
	for name, values := range series {
		summary, err := Summarize(values)
		if err != nil {
			return nil, fmt.Errorf("summarizing %q: %w", name, err)
		}
		summaries[name] = summary
	}
	return summaries, nil
}

// Write renders the summaries, as a markdown table or as JSON. Memory
// values are reported in MB, cpu values as-is.
func Write(w io.Writer, summaries map[string]Summary, metric Metric, format Format) error {
	if format == FormatJSON {
		b, err := json.Marshal(summaries)
		if err != nil {
			return fmt.Errorf("converting summaries to JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}

	fmt.Fprintln(w, "| Component | Min | Mean | Median | Max |")
	fmt.Fprintln(w, "| --- | --- | --- | --- | --- |")

	names := make([]string, 0, len(summaries))
	for name := range summaries {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		s := summaries[name]
		if metric == MetricMemory {
			fmt.Fprintf(w, "| %s | %.0f | %.0f | %.0f | %.0f |\n", name, s.Min/1e6, s.Mean/1e6, s.Median/1e6, s.Max/1e6)
		} else {
			fmt.Fprintf(w, "| %s | %.5f | %.5f | %.5f | %.5f |\n", name, s.Min, s.Mean, s.Median, s.Max)
		}
	}
	return nil
}
