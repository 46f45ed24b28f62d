// Copyright KubeArchive Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kubearchive/loadgen/pkg/stats"
)

func main() {
	file := flag.String("file", "", "CSV to process")
	metric := flag.String("type", "", "'cpu' or 'memory', influences the units")
	output := flag.String("output", "text", "'text' or 'json'")
	flag.Parse()

	if *file == "" {
		fmt.Println("'--file' parameter is required")
		os.Exit(1)
	}

	m := stats.Metric(*metric)
	if m != stats.MetricCPU && m != stats.MetricMemory {
		fmt.Printf("'--type' '%s' is not valid, should be 'cpu' or 'memory'\n", *metric)
		os.Exit(1)
	}

	f := stats.Format(*output)
	if f != stats.FormatText && f != stats.FormatJSON {
		fmt.Printf("'--output' '%s' is not valid, should be 'text' or 'json'\n", *output)
		os.Exit(1)
	}

	fh, err := os.Open(*file)
	if err != nil {
		fmt.Printf("There was an error opening '%s': %s\n", *file, err.Error())
		os.Exit(1)
	}
	defer fh.Close()

	series, err := stats.ReadSeries(fh)
	if err != nil {
		fmt.Printf("There was an error reading the series: %s\n", err.Error())
		os.Exit(1)
	}

	summaries, err := stats.SummarizeSeries(series)
	if err != nil {
		fmt.Printf("There was an error summarizing the series: %s\n", err.Error())
		os.Exit(1)
	}

	if err := stats.Write(os.Stdout, summaries, m, f); err != nil {
		fmt.Printf("There was an error writing the output: %s\n", err.Error())
		os.Exit(1)
	}
}
