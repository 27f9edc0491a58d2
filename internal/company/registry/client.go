// Package registry fetches company records from an OpenCNPJ-compatible
// public registry.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	id "cadastro/pkg/domain"
	"cadastro/pkg/platform/sentinel"
)

const (
	DefaultBaseURL = "https://api.opencnpj.org"
	DefaultTimeout = 10 * time.Second

	maxBodyBytes = 1 << 20
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// LatencyObserver records the duration of each registry round trip.
type LatencyObserver interface {
	ObserveRegistryLatency(outcome string, d time.Duration)
}

// Config configures an HTTPClient.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient HTTPDoer
	Tracer     trace.Tracer
	Metrics    LatencyObserver
}

// HTTPClient performs GET <base>/<taxid> against the registry.
type HTTPClient struct {
	baseURL string
	client  HTTPDoer
	tracer  trace.Tracer
	metrics LatencyObserver
}

func New(cfg Config) *HTTPClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("cadastro/registry")
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
		tracer:  tracer,
		metrics: cfg.Metrics,
	}
}

// Fetch returns the registry payload for taxID as raw JSON.
//
// A non-2xx response is sentinel.ErrNotFound. Transport failures and bodies
// that are not a JSON object are sentinel.ErrUnavailable.
func (c *HTTPClient) Fetch(ctx context.Context, taxID id.TaxID) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "registry.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("company.tax_id", taxID.String())))
	start := time.Now()

	body, status, err := c.fetch(ctx, taxID)

	outcome := "ok"
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	if c.metrics != nil {
		c.metrics.ObserveRegistryLatency(outcome, time.Since(start))
	}

	if status != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	span.End()
	return body, err
}

func (c *HTTPClient) fetch(ctx context.Context, taxID id.TaxID) (json.RawMessage, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+taxID.String(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("registry request failed: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, resp.StatusCode, fmt.Errorf("registry returned %d for %s: %w", resp.StatusCode, taxID, sentinel.ErrNotFound)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read registry response: %w: %w", sentinel.ErrUnavailable, err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode registry response: %w: %w", sentinel.ErrUnavailable, err)
	}
	return json.RawMessage(raw), resp.StatusCode, nil
}
