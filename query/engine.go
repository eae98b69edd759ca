package query

import (
	"encoding/json"
	"fmt"

	"github.com/kartikbazzad/bundoc-go/queryengine"
)

var _ queryengine.Engine = (*Engine)(nil)

// Engine is the reference query engine. It handles plain concatenation and
// queries the gateway has already rewritten to merge on a single numeric
// order key; anything heavier (GROUP BY, aggregates, general ORDER BY
// rewriting) belongs to an external engine plugged in via
// queryengine.Engine.
type Engine struct{}

// NewEngine creates the reference engine.
func NewEngine() *Engine {
	return &Engine{}
}

// planInfo is the subset of the gateway query plan the reference engine
// understands. The plan payload is otherwise treated as opaque.
type planInfo struct {
	OrderBy        string `json:"orderBy"`
	RewrittenQuery string `json:"rewrittenQuery"`
}

// pkRangesPayload is the partition map payload returned by the gateway.
type pkRangesPayload struct {
	PartitionKeyRanges []struct {
		ID           string `json:"id"`
		MinInclusive string `json:"minInclusive"`
		MaxExclusive string `json:"maxExclusive"`
	} `json:"PartitionKeyRanges"`
}

// CreatePipeline implements queryengine.Engine.
func (e *Engine) CreatePipeline(query string, plan, pkranges []byte) (queryengine.Pipeline, error) {
	var info planInfo
	if len(plan) > 0 {
		if err := json.Unmarshal(plan, &info); err != nil {
			return nil, fmt.Errorf("failed to decode query plan: %w", err)
		}
	}

	var ranges pkRangesPayload
	if err := json.Unmarshal(pkranges, &ranges); err != nil {
		return nil, fmt.Errorf("failed to decode partition key ranges: %w", err)
	}
	ids := make([]string, len(ranges.PartitionKeyRanges))
	for i, r := range ranges.PartitionKeyRanges {
		ids[i] = r.ID
	}

	text := query
	if info.RewrittenQuery != "" {
		text = info.RewrittenQuery
	}
	return newMergePipeline(text, info.OrderBy, ids), nil
}

// SupportedFeatures implements queryengine.Engine.
func (e *Engine) SupportedFeatures() string {
	return "OrderBy"
}
