// Copyright KubeArchive Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kubearchive/loadgen/pkg/prom"
)

var queries = []struct {
	Name  string
	Query string
	Step  string
}{
	{
		Name:  "memory",
		Query: `sum by (job) (go_memory_used_bytes{job=~"kubearchive.*"})`,
		Step:  "15s",
	},
	{
		Name:  "cpu",
		Query: `sum by (job) (irate(process_cpu_time_seconds_total{job=~"kubearchive.*"}[5m]))`,
		Step:  "15s",
	},
}

func main() {
	prometheus := flag.String("prometheus", "http://localhost:9090", "Prometheus base URL")
	start := flag.String("start", "", "start of the run, unix seconds")
	end := flag.String("end", "", "end of the run, unix seconds")
	prefix := flag.String("prefix", "./perf-results/", "directory the CSVs are written to")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	if *start == "" {
		sugar.Fatal("flag '--start=' is required")
	}
	if *end == "" {
		sugar.Fatal("flag '--end=' is required")
	}

	client := prom.NewClient(*prometheus)
	ctx := context.Background()

	for _, query := range queries {
		series, err := client.QueryRange(ctx, query.Query, *start, *end, query.Step)
		if err != nil {
			sugar.Fatalf("Failed to pull %s series: %s", query.Name, err)
		}

		path := filepath.Join(*prefix, fmt.Sprintf("%s.csv", query.Name))
		fh, err := os.Create(path)
		if err != nil {
			sugar.Fatalf("Failed to create '%s': %s", path, err)
		}

		if err := prom.WriteCSV(fh, series); err != nil {
			fh.Close()
			sugar.Fatalf("Failed to write '%s': %s", path, err)
		}
		fh.Close()

		sugar.Infow("wrote metric CSV", "metric", query.Name, "path", path, "series", len(series))
	}
}
