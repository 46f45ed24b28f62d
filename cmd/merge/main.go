// Copyright KubeArchive Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kubearchive/loadgen/pkg/merge"
	"github.com/kubearchive/loadgen/pkg/stats"
)

var usageTrends = []struct {
	File   string
	Metric stats.Metric
	Out    string
}{
	{File: "cpu.csv", Metric: stats.MetricCPU, Out: "cpu-trend.csv"},
	{File: "memory.csv", Metric: stats.MetricMemory, Out: "memory-trend.csv"},
}

var requestTrends = []struct {
	File string
	Out  string
}{
	{File: "reader.json", Out: "reader-trend.csv"},
	{File: "writer.json", Out: "writer-trend.csv"},
}

func main() {
	artifacts := flag.String("artifacts", "./perf-results/runs", "directory with one subdirectory per past run")
	prefix := flag.String("prefix", "./perf-results/merge", "directory the trend CSVs are written to")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	runs, err := merge.DiscoverRuns(*artifacts)
	if err != nil {
		sugar.Fatalf("Failed to discover runs: %s", err)
	}
	if len(runs) == 0 {
		sugar.Fatalf("No run directories under '%s'", *artifacts)
	}
	sugar.Infow("discovered runs", "count", len(runs))

	if err := os.MkdirAll(*prefix, 0o750); err != nil {
		sugar.Fatalf("Failed to create '%s': %s", *prefix, err)
	}

	for _, trend := range usageTrends {
		rows, err := merge.UsageTrend(runs, trend.File)
		if err != nil {
			sugar.Fatalf("Failed to merge '%s': %s", trend.File, err)
		}

		path := filepath.Join(*prefix, trend.Out)
		fh, err := os.Create(path)
		if err != nil {
			sugar.Fatalf("Failed to create '%s': %s", path, err)
		}
		if err := merge.WriteUsageTrend(fh, rows, trend.Metric); err != nil {
			fh.Close()
			sugar.Fatalf("Failed to write '%s': %s", path, err)
		}
		fh.Close()

		sugar.Infow("wrote usage trend", "path", path, "runs", len(rows))
	}

	for _, trend := range requestTrends {
		rows, err := merge.RequestTrend(runs, trend.File)
		if err != nil {
			sugar.Fatalf("Failed to merge '%s': %s", trend.File, err)
		}

		path := filepath.Join(*prefix, trend.Out)
		fh, err := os.Create(path)
		if err != nil {
			sugar.Fatalf("Failed to create '%s': %s", path, err)
		}
		if err := merge.WriteRequestTrend(fh, rows); err != nil {
			fh.Close()
			sugar.Fatalf("Failed to write '%s': %s", path, err)
		}
		fh.Close()

		sugar.Infow("wrote request trend", "path", path, "runs", len(rows))
	}
}
