// Copyright KubeArchive Authors
// SPDX-License-Identifier: Apache-2.0

// Package event wraps rendered resource documents in a CloudEvents
// envelope and serializes them to the binary HTTP form the sink
// ingests: one header per event attribute, the document verbatim as
// the body.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/cloudevents/sdk-go/v2/binding"
	cehttp "github.com/cloudevents/sdk-go/v2/protocol/http"
	"github.com/rogpeppe/fastuuid"
)

// Attributes are the envelope attributes carried by every encoded
// event.
type Attributes struct {
	Source      string
	Type        string
	ContentType string
}

// EncodingError reports that a document could not be wrapped or
// serialized. The renderer only hands over valid JSON, so this should
// not happen during a run.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding event: %v", e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Encoder builds binary-mode CloudEvents. Safe for concurrent use.
type Encoder struct {
	ids *fastuuid.Generator
}

func NewEncoder() *Encoder {
	return &Encoder{ids: fastuuid.MustNewGenerator()}
}

// Encode wraps data in an envelope with a fresh event id and returns
// the binary-mode headers and body. The body is the document verbatim.
func (e *Encoder) Encode(attrs Attributes, data []byte) (nethttp.Header, []byte, error) {
	if !json.Valid(data) {
		return nil, nil, &EncodingError{Err: errors.New("data is not valid JSON")}
	}

	contentType := attrs.ContentType
	if contentType == "" {
		contentType = cloudevents.ApplicationJSON
	}

	ev := cloudevents.NewEvent()
	ev.SetID(e.ids.Hex128())
	ev.SetSource(attrs.Source)
	ev.SetType(attrs.Type)
	if err := ev.SetData(contentType, data); err != nil {
		return nil, nil, &EncodingError{Err: err}
	}

	req, err := nethttp.NewRequest(nethttp.MethodPost, "http://localhost/", nil)
	if err != nil {
		return nil, nil, &EncodingError{Err: err}
	}
	if err := cehttp.WriteRequest(context.Background(), binding.ToMessage(&ev), req); err != nil {
		return nil, nil, &EncodingError{Err: err}
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, nil, &EncodingError{Err: err}
	}
	return req.Header, body, nil
}
