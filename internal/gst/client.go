package gst

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fundexhq/fundex/pkg/httpclient"
	"github.com/fundexhq/fundex/pkg/resilience"
)

// ErrNotRegistered indicates the registry answered but has no record for the
// ID. It is distinct from transport failures, which callers treat as unknown.
var ErrNotRegistered = errors.New("tax id not registered")

// RegistryClient looks up a GSTIN in the government registry.
type RegistryClient interface {
	Lookup(ctx context.Context, taxID string) (*RegistryRecord, error)
}

// HTTPRegistryClient is the production registry client. Lookups run with a
// short timeout and a circuit breaker so registry outages cannot stall
// expense analysis.
type HTTPRegistryClient struct {
	client *httpclient.Client
}

func NewHTTPRegistryClient(baseURL, apiKey string, timeout time.Duration) *HTTPRegistryClient {
	breaker := resilience.NewCircuitBreaker(resilience.Settings{
		Name:             "gst-registry",
		Timeout:          20 * time.Second,
		FailureThreshold: 3,
	}, nil)

	opts := []httpclient.Option{httpclient.WithBreaker(breaker)}
	if apiKey != "" {
		opts = append(opts, httpclient.WithHeader("Authorization", "Bearer "+apiKey))
	}

	return &HTTPRegistryClient{
		client: httpclient.NewClient(baseURL, timeout).Apply(opts...),
	}
}

func (c *HTTPRegistryClient) Lookup(ctx context.Context, taxID string) (*RegistryRecord, error) {
	var record RegistryRecord
	err := c.client.GetJSON(ctx, "/taxpayers/"+taxID, &record)
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == 404 {
			return nil, ErrNotRegistered
		}
		return nil, fmt.Errorf("registry lookup failed: %w", err)
	}
	return &record, nil
}
