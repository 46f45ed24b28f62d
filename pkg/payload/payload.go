// Copyright KubeArchive Authors
// SPDX-License-Identifier: Apache-2.0

// Package payload produces the placeholder bindings for one synthetic
// resource document. Every call yields a fresh identity, names and
// UUIDs are intentionally randomized so concurrent virtual users never
// produce the same resource twice.
package payload

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Scenario selects how resource names are generated.
type Scenario int

const (
	// ScenarioBasic names every resource "pod".
	ScenarioBasic Scenario = iota
	// ScenarioWildcardSuffix appends a random 7 digit suffix to the
	// name so wildcard name filters have something to match.
	ScenarioWildcardSuffix
)

// Binding keys. Each one corresponds to a placeholder in the pod
// template.
const (
	KeyKind            = "kind"
	KeyVersion         = "version"
	KeyPodName         = "pod_name"
	KeyPodUUID         = "pod_uuid"
	KeyOwnerUUID       = "owner_uuid"
	KeyCreateTimestamp = "create_timestamp"
	KeyUpdateTimestamp = "update_timestamp"
	KeyDeleteTimestamp = "delete_timestamp"
	KeyResourceVersion = "resource_version"
	KeyNamespace       = "namespace"
)

const (
	suffixMin  = 1000000
	suffixSpan = 9000000 // suffixes fall in [1000000, 9999999]
)

// Generator produces binding sets. The zero-value sources (wall clock,
// crypto-random UUIDs, the global math/rand source) are safe for
// concurrent use; the option overrides exist for deterministic tests.
type Generator struct {
	kind            string
	version         string
	namespace       string
	resourceVersion string

	now     func() time.Time
	newUUID func() string
	intn    func(n int) int
}

// Option overrides one of the generator's value sources.
type Option func(*Generator)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithUUIDSource replaces the UUID source.
func WithUUIDSource(newUUID func() string) Option {
	return func(g *Generator) {
		g.newUUID = newUUID
	}
}

// WithRand replaces the random source for name suffixes. The supplied
// source is not safe for concurrent use, so this is test-only.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		g.intn = r.Intn
	}
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		kind:            "Pod",
		version:         "v1",
		namespace:       "default",
		resourceVersion: "1",

		now:     time.Now,
		newUUID: uuid.NewString,
		intn:    rand.Intn,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns the bindings for one resource document: fresh UUIDs
// for the resource and its owner, a name according to the scenario and
// the three lifecycle timestamps set to the current time.
func (g *Generator) Generate(scenario Scenario) map[string]string {
	now := Timestamp(g.now())

	name := "pod"
	if scenario == ScenarioWildcardSuffix {
		name = "pod-" + strconv.Itoa(suffixMin+g.intn(suffixSpan))
	}

	return map[string]string{
		KeyKind:            g.kind,
		KeyVersion:         g.version,
		KeyPodName:         name,
		KeyPodUUID:         g.newUUID(),
		KeyOwnerUUID:       g.newUUID(),
		KeyCreateTimestamp: now,
		KeyUpdateTimestamp: now,
		KeyDeleteTimestamp: now,
		KeyResourceVersion: g.resourceVersion,
		KeyNamespace:       g.namespace,
	}
}

// Timestamp formats t the way the archive API expects its timestamps:
// UTC, second precision, no fractional seconds.
func Timestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}
