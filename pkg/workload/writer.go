// Copyright KubeArchive Authors
// SPDX-License-Identifier: Apache-2.0

package workload

import (
	"net/http"

	"github.com/kubearchive/loadgen/pkg/event"
	"github.com/kubearchive/loadgen/pkg/payload"
	"github.com/kubearchive/loadgen/pkg/template"
	vegeta "github.com/tsenart/vegeta/v12/lib"
)

// Writer posts freshly generated resources to the ingestion sink,
// unauthenticated, one CloudEvent per request. Each invocation renders
// a new document and builds a new envelope; nothing is reused between
// requests.
type Writer struct {
	sinkURL string
	tmpl    *template.Template
	gen     *payload.Generator
	enc     *event.Encoder
	attrs   event.Attributes
}

func NewWriter(cfg Config, variant Variant, tmpl *template.Template, gen *payload.Generator, enc *event.Encoder) *Writer {
	return &Writer{
		sinkURL: cfg.SinkURL,
		tmpl:    tmpl,
		gen:     gen,
		enc:     enc,
		attrs: event.Attributes{
			Source:      cfg.EventSource,
			Type:        variant.EventType(),
			ContentType: "application/json",
		},
	}
}

func (w *Writer) Behavior() Behavior {
	return Behavior{
		Name: "writer",
		Tasks: []Task{
			{Name: "create-pod", Weight: 1, Targeter: w.createTargeter()},
		},
	}
}

func (w *Writer) createTargeter() vegeta.Targeter {
	return func(tgt *vegeta.Target) error {
		doc, err := w.tmpl.Render(w.gen.Generate(payload.ScenarioWildcardSuffix))
		if err != nil {
			return err
		}

		header, body, err := w.enc.Encode(w.attrs, []byte(doc))
		if err != nil {
			return err
		}

		tgt.Method = http.MethodPost
		tgt.URL = w.sinkURL
		tgt.Header = header
		tgt.Body = body
		return nil
	}
}
