// Package queryengine defines the contract between the Bundoc client and a
// pluggable cross-partition query engine.
//
// The client fans a cross-partition query out to every partition key range
// itself; the query engine is the component that turns the per-partition
// results into a single result stream. Engines are developed independently
// of the client (the reference implementation lives in the query package),
// so the client must work against any implementation of these interfaces.
package queryengine

// Engine builds query pipelines and advertises its capabilities.
type Engine interface {
	// CreatePipeline builds a stateful pipeline for one query, given the
	// opaque query plan and partition key range payloads fetched from the
	// gateway.
	CreatePipeline(query string, plan, pkranges []byte) (Pipeline, error)

	// SupportedFeatures returns a comma-separated capability list (e.g.
	// "OrderBy") sent to the gateway when requesting a query plan, so the
	// gateway can decide which rewrites to hand off to this engine.
	SupportedFeatures() string
}

// QueryRequest is a per-partition fetch the engine needs performed before
// the pipeline can continue. An empty Continuation means start from the
// beginning of the partition.
type QueryRequest struct {
	PartitionKeyRangeID string
	Continuation        string
}

// QueryResult carries one fetched partition page back into the pipeline.
// An empty NextContinuation means the partition has no further pages.
type QueryResult struct {
	PartitionKeyRangeID string
	NextContinuation    string
	Data                []byte
}

// PipelineResult is the outcome of a single pipeline step.
type PipelineResult struct {
	// Completed indicates the pipeline is done after emitting Items.
	Completed bool

	// Items ready to be returned to the caller, in final order.
	Items [][]byte

	// Requests that must be satisfied via ProvideData before the next
	// step can make progress.
	Requests []QueryRequest
}

// Pipeline is a stateful per-query execution pipeline.
type Pipeline interface {
	// Query returns the (possibly rewritten) query text to send to each
	// partition.
	Query() string

	// Complete reports whether the pipeline will ever produce more items
	// or requests.
	Complete() bool

	// NextBatch executes one step. It is safe to call repeatedly: the
	// same outstanding requests are returned until they are satisfied by
	// ProvideData.
	NextBatch() (*PipelineResult, error)

	// ProvideData feeds one partition's fetched page into the pipeline.
	ProvideData(result *QueryResult) error
}
