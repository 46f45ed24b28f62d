// Copyright KubeArchive Authors
// SPDX-License-Identifier: Apache-2.0

// Package workload defines the virtual user behaviors driven against
// the archive system: a reader listing archived pods through the API
// and a writer pushing freshly generated resources into the sink. All
// load generation machinery (concurrency, pacing, statistics) belongs
// to vegeta; task bodies here are stateless single request builders.
package workload

import (
	"math/rand"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

// Variant selects which of the two traffic profiles a run simulates.
type Variant string

const (
	// VariantUpdate mimics the apiserver source pushing resource
	// updates. Its reader only issues unfiltered listings.
	VariantUpdate Variant = "update"
	// VariantArchiveWhen mimics sink-filter archive-when traffic and
	// additionally exercises the listing filters.
	VariantArchiveWhen Variant = "archive-when"
)

// EventType is the CloudEvents type attribute the variant's writer
// stamps on every event.
func (v Variant) EventType() string {
	if v == VariantArchiveWhen {
		return "org.kubearchive.sinkfilters.resource.archive-when"
	}
	return "dev.knative.apiserver.resource.update"
}

// Config holds the read-only process-wide values shared by every task.
// It is built once at startup and never mutated afterwards.
type Config struct {
	// APIURL is the pod listing endpoint.
	APIURL string
	// SinkURL is the CloudEvents ingestion endpoint.
	SinkURL string
	// Token authenticates requests to the API endpoint.
	Token string
	// EventSource is the CloudEvents source attribute for the writer.
	EventSource string
}

// Task is one discrete unit of work a virtual user can pick, a single
// request-response cycle with no retries.
type Task struct {
	Name     string
	Weight   int
	Targeter vegeta.Targeter
}

// Behavior is a named grouping of weighted tasks.
type Behavior struct {
	Name  string
	Tasks []Task
}

// Targeter folds the behavior's tasks into a single targeter that
// picks one task per call in proportion to its weight. Weights below
// one count as one.
func (b Behavior) Targeter() vegeta.Targeter {
	if len(b.Tasks) == 0 {
		return func(*vegeta.Target) error {
			return vegeta.ErrNoTargets
		}
	}

	weights := make([]int, len(b.Tasks))
	total := 0
	for i, task := range b.Tasks {
		weights[i] = task.Weight
		if weights[i] < 1 {
			weights[i] = 1
		}
		total += weights[i]
	}

	return func(tgt *vegeta.Target) error {
		n := rand.Intn(total)
		for i, w := range weights {
			if n < w {
				return b.Tasks[i].Targeter(tgt)
			}
			n -= w
		}
		return vegeta.ErrNoTargets
	}
}
