// Package transport defines the gateway collaborator boundary the query
// executor depends on, plus an HTTP implementation speaking to the Bundoc
// Cloud gateway. Retry and redirect policy belong to the transport, not to
// the callers.
package transport

import "context"

// ItemsRequest is one per-partition query fetch.
type ItemsRequest struct {
	Container           string
	PartitionKeyRangeID string
	Query               string
	Continuation        string // empty = first page
	SessionToken        string // empty = no session consistency requested
}

// ItemsResponse is the result of a per-partition query fetch.
type ItemsResponse struct {
	Data             []byte
	NextContinuation string // empty = partition exhausted
	SessionToken     string // token observed on the response, if any
}

// Interface is the gateway surface the query executor requires.
type Interface interface {
	// QueryPlan fetches the gateway-computed plan for a query, advertising
	// the engine's supported features.
	QueryPlan(ctx context.Context, container, query, supportedFeatures string) ([]byte, error)

	// PartitionKeyRanges fetches the container's current partition map.
	PartitionKeyRanges(ctx context.Context, container string) ([]byte, error)

	// QueryItems issues one per-partition query request.
	QueryItems(ctx context.Context, req *ItemsRequest) (*ItemsResponse, error)
}
