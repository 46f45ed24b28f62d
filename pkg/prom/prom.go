// Copyright KubeArchive Authors
// SPDX-License-Identifier: Apache-2.0

// Package prom pulls the archive system's resource usage series out of
// Prometheus after a load run, so they can be summarized alongside the
// request metrics.
package prom

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/hashicorp/go-retryablehttp"
)

// Sample is one (timestamp, value) pair. Prometheus reports values as
// strings; they are kept verbatim for the CSV output.
type Sample struct {
	Timestamp float64
	Value     string
}

// Series is one labelled stream of samples.
type Series struct {
	Job     string
	Samples []Sample
}

// Client queries a Prometheus server's range API. Transient failures
// are retried; Prometheus may still be scraping right after a run
// ends.
type Client struct {
	base string
	http *retryablehttp.Client
}

func NewClient(base string) *Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 5
	c.Logger = nil
	return &Client{base: base, http: c}
}

type rangeResponse struct {
	Status string `json:"status"`
	Data   struct {
		Result []struct {
			Metric struct {
				Job string `json:"job"`
			} `json:"metric"`
			Values [][]any `json:"values"`
		} `json:"result"`
	} `json:"data"`
}

// QueryRange evaluates query over [start, end] at the given step and
// returns one series per job label.
func (c *Client) QueryRange(ctx context.Context, query, start, end, step string) ([]Series, error) {
	u, err := url.Parse(c.base + "/api/v1/query_range")
	if err != nil {
		return nil, fmt.Errorf("building query_range URL: %w", err)
	}
	q := u.Query()
	q.Set("query", query)
	q.Set("start", start)
	q.Set("end", end)
	q.Set("step", step)
	u.RawQuery = q.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Prometheus: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Prometheus returned %d: %s", res.StatusCode, body)
	}

	var parsed rangeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("deserializing response: %w", err)
	}
	if parsed.Status != "success" {
		return nil, fmt.Errorf("query status is %q, not success", parsed.Status)
	}
	if len(parsed.Data.Result) == 0 {
		return nil, fmt.Errorf("query %q returned no results", query)
	}

	series := make([]Series, 0, len(parsed.Data.Result))
	for _, result := range parsed.Data.Result {
		s := Series{Job: result.Metric.Job}
		for _, pair := range result.Values {
			if len(pair) != 2 {
				return nil, fmt.Errorf("malformed sample %v", pair)
			}
			ts, tsOK := pair[0].(float64)
			value, valueOK := pair[1].(string)
			if !tsOK || !valueOK {
				return nil, fmt.Errorf("malformed sample %v", pair)
			}
			s.Samples = append(s.Samples, Sample{Timestamp: ts, Value: value})
		}
		series = append(series, s)
	}
	return series, nil
}

// WriteCSV pivots the series into a CSV: one timestamp column followed
// by one value column per job, rows ordered by timestamp. A job with
// no sample at a timestamp gets an empty cell, so columns stay aligned
// when scrapes are missing.
func WriteCSV(w io.Writer, series []Series) error {
	header := []string{"timestamp"}
	columns := make([]map[string]string, len(series))
	timestamps := []string{}
	seen := map[string]bool{}

	for i, s := range series {
		header = append(header, s.Job)
		columns[i] = make(map[string]string, len(s.Samples))
		for _, sample := range s.Samples {
			ts := strconv.FormatFloat(sample.Timestamp, 'f', 0, 64)
			if !seen[ts] {
				seen[ts] = true
				timestamps = append(timestamps, ts)
			}
			columns[i][ts] = sample.Value
		}
	}
	slices.Sort(timestamps)

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, ts := range timestamps {
		row := make([]string, 0, len(series)+1)
		row = append(row, ts)
		for i := range series {
			row = append(row, columns[i][ts])
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
