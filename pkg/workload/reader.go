// Copyright KubeArchive Authors
// SPDX-License-Identifier: Apache-2.0

package workload

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/kubearchive/loadgen/pkg/payload"
	vegeta "github.com/tsenart/vegeta/v12/lib"
)

// ErrMissingToken aborts startup before any request is issued when the
// bearer token for the API endpoint is empty.
var ErrMissingToken = errors.New("bearer token is empty, set SA_TOKEN")

// Reader issues authenticated list requests against the archive API.
//
// The two timestamp filter values are computed once at construction,
// one hour before start and start itself, and reused verbatim by every
// task invocation. Repeated runs then hit the API with identical
// filters, which keeps cache and index behavior comparable between
// runs.
type Reader struct {
	listURL string
	header  http.Header
	variant Variant

	after  string
	before string

	intn func(n int) int
}

// ReaderOption overrides one of the reader's value sources for tests.
type ReaderOption func(*Reader)

// WithReaderClock replaces the clock the fixed filter timestamps are
// derived from.
func WithReaderClock(now func() time.Time) ReaderOption {
	return func(r *Reader) {
		start := now()
		r.after = payload.Timestamp(start.Add(-time.Hour))
		r.before = payload.Timestamp(start)
	}
}

// WithReaderRand replaces the random source for the wildcard digit.
func WithReaderRand(rnd *rand.Rand) ReaderOption {
	return func(r *Reader) {
		r.intn = rnd.Intn
	}
}

func NewReader(cfg Config, variant Variant, opts ...ReaderOption) (*Reader, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}

	r := &Reader{
		listURL: cfg.APIURL,
		header:  http.Header{"Authorization": []string{"Bearer " + cfg.Token}},
		variant: variant,
		intn:    rand.Intn,
	}
	WithReaderClock(time.Now)(r)

	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Behavior returns the reader's task set. The plain listing is always
// present; the filtered listings only make sense for the archive-when
// variant, whose API has the timestamp and wildcard name filters.
func (r *Reader) Behavior() Behavior {
	tasks := []Task{
		{Name: "list", Weight: 1, Targeter: r.listTargeter(nil)},
	}

	if r.variant == VariantArchiveWhen {
		tasks = append(tasks,
			Task{Name: "list-created-after", Weight: 1, Targeter: r.listTargeter(url.Values{
				"creationTimestampAfter": []string{r.after},
			})},
			Task{Name: "list-created-before", Weight: 1, Targeter: r.listTargeter(url.Values{
				"creationTimestampBefore": []string{r.before},
			})},
			Task{Name: "list-created-between", Weight: 1, Targeter: r.listTargeter(url.Values{
				"creationTimestampAfter":  []string{r.after},
				"creationTimestampBefore": []string{r.before},
			})},
			Task{Name: "list-name-wildcard", Weight: 1, Targeter: r.wildcardTargeter()},
		)
	}

	return Behavior{Name: "reader", Tasks: tasks}
}

// listTargeter builds the task URL once; every invocation reuses it.
func (r *Reader) listTargeter(query url.Values) vegeta.Targeter {
	target := r.listURL
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	return func(tgt *vegeta.Target) error {
		tgt.Method = http.MethodGet
		tgt.URL = target
		tgt.Header = r.header
		return nil
	}
}

// wildcardTargeter lists pods whose name contains a random digit,
// matching the 7 digit suffixes the writer generates.
func (r *Reader) wildcardTargeter() vegeta.Targeter {
	return func(tgt *vegeta.Target) error {
		query := url.Values{"name": []string{fmt.Sprintf("*%d*", r.intn(10))}}
		tgt.Method = http.MethodGet
		tgt.URL = r.listURL + "?" + query.Encode()
		tgt.Header = r.header
		return nil
	}
}
