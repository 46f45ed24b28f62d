// Copyright KubeArchive Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAttributes = Attributes{
	Source:      "localhost:443",
	Type:        "dev.knative.apiserver.resource.update",
	ContentType: "application/json",
}

func TestEncodeBinaryMode(t *testing.T) {
	document := []byte(`{"kind":"Pod","metadata":{"name":"pod-1234567","namespace":"default"}}`)

	header, body, err := NewEncoder().Encode(testAttributes, document)
	require.NoError(t, err)

	assert.Equal(t, testAttributes.Type, header.Get("ce-type"))
	assert.Equal(t, testAttributes.Source, header.Get("ce-source"))
	assert.Equal(t, "1.0", header.Get("ce-specversion"))
	assert.Equal(t, "application/json", header.Get("content-type"))
	assert.NotEmpty(t, header.Get("ce-id"))

	assert.JSONEq(t, string(document), string(body))
}

func TestEncodeFreshIDPerEvent(t *testing.T) {
	enc := NewEncoder()
	document := []byte(`{"kind":"Pod"}`)

	first, _, err := enc.Encode(testAttributes, document)
	require.NoError(t, err)
	second, _, err := enc.Encode(testAttributes, document)
	require.NoError(t, err)

	assert.NotEqual(t, first.Get("ce-id"), second.Get("ce-id"))
}

func TestEncodeDefaultsContentType(t *testing.T) {
	attrs := testAttributes
	attrs.ContentType = ""

	header, _, err := NewEncoder().Encode(attrs, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "application/json", header.Get("content-type"))
}

func TestEncodeRejectsInvalidJSON(t *testing.T) {
	_, _, err := NewEncoder().Encode(testAttributes, []byte(`{"kind": "Pod"`))
	require.Error(t, err)

	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
}
