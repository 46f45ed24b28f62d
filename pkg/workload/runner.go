// Copyright KubeArchive Authors
// SPDX-License-Identifier: Apache-2.0

package workload

import (
	"crypto/tls"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
	"go.uber.org/zap"
)

// Runner drives one behavior with a vegeta attacker. Concurrency
// fan-out, pacing and per-request statistics stay inside the engine;
// transport failures land in the metrics as failed requests, they are
// never retried here.
type Runner struct {
	attacker *vegeta.Attacker
	log      *zap.SugaredLogger
}

func NewRunner(log *zap.SugaredLogger, opts ...func(*vegeta.Attacker)) *Runner {
	return &Runner{
		attacker: vegeta.NewAttacker(opts...),
		log:      log,
	}
}

// APIAttackerOptions configures an attacker for the archive API. The
// endpoint serves a self-signed certificate, so verification is off.
func APIAttackerOptions(workers uint64) []func(*vegeta.Attacker) {
	return []func(*vegeta.Attacker){
		vegeta.Workers(workers),
		vegeta.TLSConfig(&tls.Config{InsecureSkipVerify: true}), // #nosec G402
	}
}

// SinkAttackerOptions configures an attacker for the ingestion sink.
func SinkAttackerOptions(workers uint64) []func(*vegeta.Attacker) {
	return []func(*vegeta.Attacker){
		vegeta.Workers(workers),
	}
}

// Run attacks with the behavior's targeter at a constant rate for the
// given duration and returns the aggregated metrics.
func (r *Runner) Run(behavior Behavior, rate vegeta.Rate, duration time.Duration) *vegeta.Metrics {
	r.log.Infow("starting attack",
		"behavior", behavior.Name,
		"rps", rate.Freq,
		"duration", duration,
	)

	var metrics vegeta.Metrics
	for res := range r.attacker.Attack(behavior.Targeter(), rate, duration, behavior.Name) {
		metrics.Add(res)
	}
	metrics.Close()

	r.log.Infow("attack finished",
		"behavior", behavior.Name,
		"requests", metrics.Requests,
		"success", metrics.Success,
		"p95", metrics.Latencies.P95,
	)
	return &metrics
}
