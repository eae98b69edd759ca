package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kartikbazzad/bundoc-go/internal/metrics"
)

// Gateway request/response headers.
const (
	HeaderQuery             = "X-Bundoc-Query"
	HeaderIsQueryPlan       = "X-Bundoc-Is-Query-Plan"
	HeaderSupportedFeatures = "X-Bundoc-Supported-Query-Features"
	HeaderSessionToken      = "X-Bundoc-Session-Token"
	HeaderContinuation      = "X-Bundoc-Continuation"
	HeaderPartitionKeyRange = "X-Bundoc-Partition-Key-Range-Id"
	HeaderActivityID        = "X-Bundoc-Activity-Id"
)

// queryBody is the JSON body of query and query-plan requests.
type queryBody struct {
	Query string `json:"query"`
}

// GatewayTransport speaks to a Bundoc Cloud gateway over HTTP.
type GatewayTransport struct {
	endpoint string
	client   *http.Client
}

// NewGatewayTransport creates a transport for the gateway at endpoint
// (base URL without trailing slash).
func NewGatewayTransport(endpoint string, timeout time.Duration) *GatewayTransport {
	return &GatewayTransport{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// QueryPlan implements Interface.
func (t *GatewayTransport) QueryPlan(ctx context.Context, container, query, supportedFeatures string) ([]byte, error) {
	req, err := t.newQueryRequest(ctx, container, query)
	if err != nil {
		return nil, err
	}
	req.Header.Set(HeaderIsQueryPlan, "True")
	req.Header.Set(HeaderSupportedFeatures, supportedFeatures)

	resp, err := t.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// PartitionKeyRanges implements Interface.
func (t *GatewayTransport) PartitionKeyRanges(ctx context.Context, container string) ([]byte, error) {
	url := fmt.Sprintf("%s/containers/%s/pkranges", t.endpoint, container)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(HeaderActivityID, uuid.NewString())

	resp, err := t.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// QueryItems implements Interface.
func (t *GatewayTransport) QueryItems(ctx context.Context, r *ItemsRequest) (*ItemsResponse, error) {
	start := time.Now()
	req, err := t.newQueryRequest(ctx, r.Container, r.Query)
	if err != nil {
		return nil, err
	}
	req.Header.Set(HeaderPartitionKeyRange, r.PartitionKeyRangeID)
	if r.Continuation != "" {
		req.Header.Set(HeaderContinuation, r.Continuation)
	}
	if r.SessionToken != "" {
		req.Header.Set(HeaderSessionToken, r.SessionToken)
	}

	resp, err := t.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read query response: %w", err)
	}
	metrics.PartitionFetchDuration.Observe(time.Since(start).Seconds())

	return &ItemsResponse{
		Data:             data,
		NextContinuation: resp.Header.Get(HeaderContinuation),
		SessionToken:     resp.Header.Get(HeaderSessionToken),
	}, nil
}

func (t *GatewayTransport) newQueryRequest(ctx context.Context, container, query string) (*http.Request, error) {
	body, err := json.Marshal(queryBody{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}
	url := fmt.Sprintf("%s/containers/%s/query", t.endpoint, container)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderQuery, "True")
	req.Header.Set(HeaderActivityID, uuid.NewString())
	return req, nil
}

func (t *GatewayTransport) do(req *http.Request) (*http.Response, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return nil, &GatewayError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return resp, nil
}

// GatewayError is a non-2xx gateway response.
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Body)
}
