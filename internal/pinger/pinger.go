// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

// Package pinger performs one-shot reachability probes against monitored
// websites.
package pinger

import (
	"context"
	"net/http"
	"time"

	"github.com/vigil-monitoring/vigil/internal/metrics"
	"github.com/vigil-monitoring/vigil/internal/models"
)

const defaultTimeout = 10 * time.Second

// Pinger probes website URLs over HTTP.
type Pinger struct {
	client *http.Client
}

// New returns a pinger with the given probe timeout; zero means the
// default of ten seconds.
func New(timeout time.Duration) *Pinger {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Pinger{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Ping issues a GET against the website URL and reports the outcome. A
// status below 400 counts as up; transport errors count as down.
func (p *Pinger) Ping(ctx context.Context, website *models.Website) models.PingResult {
	result := models.PingResult{
		WebsiteID: website.ID,
		URL:       website.URL,
		CheckedAt: time.Now().UTC(),
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, website.URL, nil)
	if err != nil {
		result.Error = err.Error()
		metrics.RecordWebsitePing("error", time.Since(start))
		return result
	}
	req.Header.Set("User-Agent", "vigil-pinger/1.0")

	resp, err := p.client.Do(req)
	result.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		metrics.RecordWebsitePing("down", time.Since(start))
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	result.Up = resp.StatusCode < http.StatusBadRequest
	if result.Up {
		metrics.RecordWebsitePing("up", time.Since(start))
	} else {
		metrics.RecordWebsitePing("down", time.Since(start))
	}
	return result
}
