// Copyright KubeArchive Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	vegeta "github.com/tsenart/vegeta/v12/lib"
	"go.uber.org/zap"

	"github.com/kubearchive/loadgen/pkg/event"
	"github.com/kubearchive/loadgen/pkg/payload"
	"github.com/kubearchive/loadgen/pkg/template"
	"github.com/kubearchive/loadgen/pkg/workload"
)

var (
	behavior     string
	variant      string
	apiURL       string
	sinkURL      string
	templatePath string
	eventSource  string
	rps          int
	duration     time.Duration
	workers      uint64
	output       string
)

func init() {
	flag.StringVar(&behavior, "behavior", "all", "behavior to run, one of (reader, writer, all)")
	flag.StringVar(&variant, "variant", "update", "scenario variant, one of (update, archive-when)")
	flag.StringVar(&apiURL, "api", "https://localhost:8081/api/v1/pods", "the pod listing endpoint")
	flag.StringVar(&sinkURL, "sink", "http://localhost:8082/", "the CloudEvents ingestion endpoint")
	flag.StringVar(&templatePath, "template", "pod.json", "path to the pod JSON template")
	flag.StringVar(&eventSource, "event-source", "localhost:443", "the event source attribute (CloudEvents)")
	flag.IntVar(&rps, "rate", 100, "requests per second, per behavior")
	flag.DurationVar(&duration, "duration", 60*time.Second, "duration of each attack")
	flag.Uint64Var(&workers, "workers", 10, "initial number of workers per attacker")
	flag.StringVar(&output, "output", "text", "report format, one of (text, json, hdr)")
}

type envConfig struct {
	// Bearer token for the archive API. The harness refuses to start
	// without it.
	Token string `envconfig:"SA_TOKEN" required:"true"`
}

func main() {
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	var env envConfig
	if err := envconfig.Process("", &env); err != nil {
		sugar.Fatalf("Failed to process env var: %s", err)
	}
	if env.Token == "" {
		sugar.Fatal("SA_TOKEN environment variable is empty")
	}

	v := workload.Variant(variant)
	switch v {
	case workload.VariantUpdate, workload.VariantArchiveWhen:
	default:
		sugar.Fatalf("Unknown variant %q", variant)
	}

	switch behavior {
	case "reader", "writer", "all":
	default:
		sugar.Fatalf("Unknown behavior %q", behavior)
	}

	tmpl, err := template.Load(templatePath)
	if err != nil {
		sugar.Fatalf("Failed to load the pod template: %s", err)
	}

	cfg := workload.Config{
		APIURL:      apiURL,
		SinkURL:     sinkURL,
		Token:       env.Token,
		EventSource: eventSource,
	}
	rate := vegeta.Rate{Freq: rps, Per: time.Second}

	if behavior == "reader" || behavior == "all" {
		reader, err := workload.NewReader(cfg, v)
		if err != nil {
			sugar.Fatalf("Failed to build the reader behavior: %s", err)
		}

		runner := workload.NewRunner(sugar, workload.APIAttackerOptions(workers)...)
		metrics := runner.Run(reader.Behavior(), rate, duration)
		if err := report(metrics, output); err != nil {
			sugar.Fatalf("Failed to write the reader report: %s", err)
		}
	}

	if behavior == "writer" || behavior == "all" {
		writer := workload.NewWriter(cfg, v, tmpl, payload.NewGenerator(), event.NewEncoder())

		runner := workload.NewRunner(sugar, workload.SinkAttackerOptions(workers)...)
		metrics := runner.Run(writer.Behavior(), rate, duration)
		if err := report(metrics, output); err != nil {
			sugar.Fatalf("Failed to write the writer report: %s", err)
		}
	}
}

func report(metrics *vegeta.Metrics, format string) error {
	var reporter vegeta.Reporter
	switch format {
	case "json":
		reporter = vegeta.NewJSONReporter(metrics)
	case "hdr":
		reporter = vegeta.NewHDRHistogramPlotReporter(metrics)
	default:
		reporter = vegeta.NewTextReporter(metrics)
	}
	return reporter.Report(os.Stdout)
}
