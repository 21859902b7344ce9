// Package cma is the collaborator client for comparative market analysis
// reports. Nurture's day-30 touch requests a report as a high-value
// re-engagement asset; a failure degrades the touch instead of failing it.
package cma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Request describes the property to analyze.
type Request struct {
	LeadID  string `json:"lead_id"`
	Address string `json:"address,omitempty"`
	// Notes carries free-form context from the conversation, e.g. stated
	// condition or price expectations.
	Notes string `json:"notes,omitempty"`
}

// Report is a generated comparative market analysis.
type Report struct {
	ReportID      string    `json:"report_id"`
	URL           string    `json:"url"`
	EstimateLow   float64   `json:"estimate_low,omitempty"`
	EstimateHigh  float64   `json:"estimate_high,omitempty"`
	ComparableCnt int       `json:"comparable_count,omitempty"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// Generator produces CMA reports.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Report, error)
}

// HTTPGenerator calls the CMA service over HTTP.
type HTTPGenerator struct {
	baseURL string
	http    *http.Client
}

// NewHTTPGenerator creates a CMA client. deadline bounds each request;
// report generation is slow, so the default is generous.
func NewHTTPGenerator(baseURL string, deadline time.Duration) (*HTTPGenerator, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("cma base URL is required")
	}
	return &HTTPGenerator{
		baseURL: baseURL,
		http:    &http.Client{Timeout: deadline},
	}, nil
}

// Generate requests one report.
func (g *HTTPGenerator) Generate(ctx context.Context, req Request) (*Report, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal cma request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/reports", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build cma request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("cma request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("cma returned %d: %s", resp.StatusCode, string(body))
	}

	var report Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode cma response: %w", err)
	}
	return &report, nil
}

// Disabled is the Generator for deployments without a CMA service. Every
// request fails, which callers treat as a degraded touch.
type Disabled struct{}

// Generate always fails.
func (Disabled) Generate(context.Context, Request) (*Report, error) {
	return nil, errors.New("cma generation is not configured")
}

// FakeGenerator returns canned reports for tests and local dev.
type FakeGenerator struct {
	Report *Report
	Err    error
	Calls  []Request
}

// Generate records the request and returns the canned report.
func (f *FakeGenerator) Generate(_ context.Context, req Request) (*Report, error) {
	f.Calls = append(f.Calls, req)
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Report != nil {
		return f.Report, nil
	}
	return &Report{
		ReportID:    "fake-report",
		URL:         "https://reports.example.com/fake-report",
		GeneratedAt: time.Now(),
	}, nil
}
