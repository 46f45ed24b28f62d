// Copyright KubeArchive Authors
// SPDX-License-Identifier: Apache-2.0

package payload

import (
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	wildcardName = regexp.MustCompile(`^pod-\d{7}$`)
	rfc3339UTC   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`)
)

func TestGenerateBasicName(t *testing.T) {
	bindings := NewGenerator().Generate(ScenarioBasic)
	assert.Equal(t, "pod", bindings[KeyPodName])
}

func TestGenerateFixedFields(t *testing.T) {
	bindings := NewGenerator().Generate(ScenarioWildcardSuffix)

	assert.Equal(t, "Pod", bindings[KeyKind])
	assert.Equal(t, "v1", bindings[KeyVersion])
	assert.Equal(t, "default", bindings[KeyNamespace])
	assert.Equal(t, "1", bindings[KeyResourceVersion])
}

func TestGenerateWildcardNamePattern(t *testing.T) {
	gen := NewGenerator()
	for i := 0; i < 1000; i++ {
		name := gen.Generate(ScenarioWildcardSuffix)[KeyPodName]
		require.Regexp(t, wildcardName, name)

		suffix, err := strconv.Atoi(strings.TrimPrefix(name, "pod-"))
		require.NoError(t, err)
		require.GreaterOrEqual(t, suffix, 1000000)
		require.LessOrEqual(t, suffix, 9999999)
	}
}

func TestGenerateConsecutiveCallsAreDistinct(t *testing.T) {
	gen := NewGenerator()
	previous := gen.Generate(ScenarioWildcardSuffix)
	for i := 0; i < 10000; i++ {
		current := gen.Generate(ScenarioWildcardSuffix)
		require.NotEqual(t, previous[KeyPodName], current[KeyPodName], "iteration %d", i)
		require.NotEqual(t, previous[KeyPodUUID], current[KeyPodUUID], "iteration %d", i)
		require.NotEqual(t, previous[KeyOwnerUUID], current[KeyOwnerUUID], "iteration %d", i)
		previous = current
	}
}

func TestGenerateTimestampFormat(t *testing.T) {
	bindings := NewGenerator().Generate(ScenarioBasic)

	for _, key := range []string{KeyCreateTimestamp, KeyUpdateTimestamp, KeyDeleteTimestamp} {
		value := bindings[key]
		require.Regexp(t, rfc3339UTC, value)

		parsed, err := time.Parse(time.RFC3339, value)
		require.NoError(t, err)
		assert.Equal(t, time.UTC, parsed.Location())
	}
}

func TestGenerateWithFixedSources(t *testing.T) {
	fixedTime := time.Date(2024, 5, 17, 9, 30, 12, 987654321, time.FixedZone("CEST", 2*60*60))
	uuids := []string{"11111111-1111-4111-8111-111111111111", "22222222-2222-4222-8222-222222222222"}
	next := 0

	gen := NewGenerator(
		WithClock(func() time.Time { return fixedTime }),
		WithUUIDSource(func() string {
			u := uuids[next%len(uuids)]
			next++
			return u
		}),
		WithRand(rand.New(rand.NewSource(42))),
	)

	bindings := gen.Generate(ScenarioWildcardSuffix)

	// 09:30:12 CEST is 07:30:12 UTC, fractional seconds dropped.
	assert.Equal(t, "2024-05-17T07:30:12Z", bindings[KeyCreateTimestamp])
	assert.Equal(t, bindings[KeyCreateTimestamp], bindings[KeyUpdateTimestamp])
	assert.Equal(t, bindings[KeyCreateTimestamp], bindings[KeyDeleteTimestamp])
	assert.Equal(t, uuids[0], bindings[KeyPodUUID])
	assert.Equal(t, uuids[1], bindings[KeyOwnerUUID])
	assert.Regexp(t, wildcardName, bindings[KeyPodName])
}
