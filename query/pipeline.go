package query

import (
	"encoding/json"
	"fmt"

	"github.com/kartikbazzad/bundoc-go/internal/metrics"
	"github.com/kartikbazzad/bundoc-go/queryengine"
)

// queueItem is one buffered result item with its extracted order key.
type queueItem struct {
	orderKey float64
	raw      json.RawMessage
}

// partitionState tracks pipeline progress for one partition key range.
type partitionState struct {
	id           string
	started      bool // true once the first page has been provided
	queue        []queueItem
	continuation string // pending continuation, empty = none
}

// exhausted reports whether this partition will never contribute again:
// its buffer is drained, it has started, and no continuation is pending.
func (p *partitionState) exhausted() bool {
	return len(p.queue) == 0 && p.started && p.continuation == ""
}

// mergePipeline is the reference pipeline: a k-way merge across partition
// buffers on a numeric order key, or plain in-order concatenation when no
// order key is configured.
//
// The merge never emits an item while any partition is still unstarted: an
// unstarted partition could later contribute an item with a lower key than
// anything emitted so far.
type mergePipeline struct {
	query      string
	orderField string // empty = concatenation mode
	completed  bool
	parts      []partitionState
}

func newMergePipeline(query, orderField string, pkRangeIDs []string) *mergePipeline {
	parts := make([]partitionState, len(pkRangeIDs))
	for i, id := range pkRangeIDs {
		parts[i] = partitionState{id: id}
	}
	return &mergePipeline{
		query:      query,
		orderField: orderField,
		parts:      parts,
	}
}

func (p *mergePipeline) Query() string {
	return p.query
}

func (p *mergePipeline) Complete() bool {
	return p.completed
}

func (p *mergePipeline) NextBatch() (*queryengine.PipelineResult, error) {
	metrics.PipelineBatches.Inc()

	var items [][]byte
	if p.orderField == "" {
		items = p.drainConcat()
	} else {
		items = p.drainOrdered()
	}

	// Request data only where it is actually needed: unstarted partitions
	// and partitions with a pending continuation. A started partition whose
	// last page is still buffered would otherwise be fetched from the top
	// again, duplicating items.
	var requests []queryengine.QueryRequest
	for i := range p.parts {
		ps := &p.parts[i]
		if ps.started && ps.continuation == "" {
			continue
		}
		requests = append(requests, queryengine.QueryRequest{
			PartitionKeyRangeID: ps.id,
			Continuation:        ps.continuation,
		})
	}

	if len(items) == 0 && len(requests) == 0 {
		p.completed = true
	}
	return &queryengine.PipelineResult{
		Completed: p.completed,
		Items:     items,
		Requests:  requests,
	}, nil
}

// drainOrdered pops the lowest-keyed buffered head until a partition that
// may still contribute has nothing buffered: unstarted, or drained with a
// continuation pending. Its next page may hold lower keys than any head.
func (p *mergePipeline) drainOrdered() [][]byte {
	var items [][]byte
	for {
		best := -1
		for i := range p.parts {
			ps := &p.parts[i]
			if !ps.started {
				return items
			}
			if len(ps.queue) == 0 {
				if ps.continuation != "" {
					return items
				}
				continue
			}
			if best < 0 || ps.queue[0].orderKey < p.parts[best].queue[0].orderKey {
				best = i
			}
		}
		if best < 0 {
			return items
		}
		ps := &p.parts[best]
		items = append(items, ps.queue[0].raw)
		ps.queue = ps.queue[1:]
	}
}

// drainConcat emits partitions strictly in partition-map order: items flow
// from the first non-exhausted partition only, and stop as soon as that
// partition needs more data.
func (p *mergePipeline) drainConcat() [][]byte {
	var items [][]byte
	for i := range p.parts {
		ps := &p.parts[i]
		if ps.exhausted() {
			continue
		}
		for len(ps.queue) > 0 {
			items = append(items, ps.queue[0].raw)
			ps.queue = ps.queue[1:]
		}
		if !ps.exhausted() {
			// Still awaiting data for this partition; later partitions
			// must not jump the queue.
			break
		}
	}
	return items
}

// itemsPage is the JSON shape of a per-partition result page.
type itemsPage struct {
	Documents []json.RawMessage `json:"Documents"`
}

func (p *mergePipeline) ProvideData(result *queryengine.QueryResult) error {
	var ps *partitionState
	for i := range p.parts {
		if p.parts[i].id == result.PartitionKeyRangeID {
			ps = &p.parts[i]
			break
		}
	}
	if ps == nil {
		return fmt.Errorf("unknown partition key range %q", result.PartitionKeyRangeID)
	}

	var page itemsPage
	if err := json.Unmarshal(result.Data, &page); err != nil {
		return fmt.Errorf("failed to decode page for partition %s: %w", ps.id, err)
	}

	for _, doc := range page.Documents {
		item := queueItem{raw: doc}
		if p.orderField != "" {
			key, err := extractOrderKey(doc, p.orderField)
			if err != nil {
				return err
			}
			item.orderKey = key
		}
		ps.queue = append(ps.queue, item)
	}
	ps.started = true
	ps.continuation = result.NextContinuation
	return nil
}

func extractOrderKey(doc json.RawMessage, field string) (float64, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc, &fields); err != nil {
		return 0, fmt.Errorf("result item is not a JSON object: %w", err)
	}
	raw, ok := fields[field]
	if !ok {
		return 0, fmt.Errorf("result item is missing order key field %q", field)
	}
	var key float64
	if err := json.Unmarshal(raw, &key); err != nil {
		return 0, fmt.Errorf("order key field %q is not a number: %w", field, err)
	}
	return key, nil
}
