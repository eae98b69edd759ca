// Package query drives cross-partition queries end to end: it fetches the
// query plan and partition map, instantiates a pipeline through the
// queryengine contract, performs the per-partition fetches the pipeline
// demands, and yields ordered result pages. It also provides the reference
// engine and merge pipeline.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/panjf2000/ants/v2"

	"github.com/kartikbazzad/bundoc-go/internal/logger"
	"github.com/kartikbazzad/bundoc-go/internal/metrics"
	"github.com/kartikbazzad/bundoc-go/queryengine"
	"github.com/kartikbazzad/bundoc-go/session"
	"github.com/kartikbazzad/bundoc-go/transport"
)

// planEntry caches the two prefetches a pipeline needs.
type planEntry struct {
	plan     []byte
	pkranges []byte
}

// ExecutorOptions tunes an Executor. The zero value disables the plan
// cache, runs fetches sequentially, and skips session propagation.
type ExecutorOptions struct {
	// Sessions, when set, is consulted for the session token to attach to
	// per-partition fetches, and fed tokens observed on responses.
	Sessions *session.Registry

	// PlanCacheSize caches plan + partition map payloads per
	// (container, query); 0 disables caching.
	PlanCacheSize int

	// FanOutWorkers bounds concurrent per-partition fetches; values < 2
	// fetch sequentially.
	FanOutWorkers int
}

// Executor orchestrates queries against one gateway transport using a
// pluggable query engine.
type Executor struct {
	transport transport.Interface
	engine    queryengine.Engine
	sessions  *session.Registry
	planCache *lru.Cache[string, planEntry]
	pool      *ants.Pool
	log       *slog.Logger
}

// NewExecutor creates an executor over the given transport and engine.
func NewExecutor(t transport.Interface, engine queryengine.Engine, opts ExecutorOptions) (*Executor, error) {
	e := &Executor{
		transport: t,
		engine:    engine,
		sessions:  opts.Sessions,
		log:       logger.Get(),
	}
	if opts.PlanCacheSize > 0 {
		cache, err := lru.New[string, planEntry](opts.PlanCacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create plan cache: %w", err)
		}
		e.planCache = cache
	}
	if opts.FanOutWorkers > 1 {
		pool, err := ants.NewPool(opts.FanOutWorkers, ants.WithPanicHandler(func(v any) {
			e.log.Error("partition fetch panic", "panic", v)
		}))
		if err != nil {
			return nil, fmt.Errorf("failed to create fan-out pool: %w", err)
		}
		e.pool = pool
	}
	return e, nil
}

// Close releases the fan-out pool.
func (e *Executor) Close() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// Query starts a query against a container and returns a lazy pager. The
// pager is single-use; call Query again to restart the query.
func (e *Executor) Query(container, text string) *Pager {
	return &Pager{
		exec:      e,
		container: container,
		text:      text,
	}
}

type pagerState int

const (
	stateInitial pagerState = iota
	stateRunning
	stateDone
)

// Page is one batch of query results, each item an opaque document payload.
type Page struct {
	Items [][]byte
}

// Pager yields query result pages one at a time:
//
//	pager := executor.Query("orders", text)
//	for pager.Next(ctx) {
//		page := pager.Page()
//		...
//	}
//	if err := pager.Err(); err != nil { ... }
//
// Any transport or pipeline error is terminal; the pager stops and reports
// it through Err.
type Pager struct {
	exec      *Executor
	container string
	text      string

	state    pagerState
	pipeline queryengine.Pipeline
	page     *Page
	err      error
}

// Next advances to the next result page, performing whatever per-partition
// fetches the pipeline demands. It returns false when the query completes,
// fails, or ctx is cancelled.
func (p *Pager) Next(ctx context.Context) bool {
	if p.state == stateDone {
		return false
	}
	p.page = nil

	if p.state == stateInitial {
		pipeline, err := p.exec.createPipeline(ctx, p.container, p.text)
		if err != nil {
			return p.fail(err)
		}
		p.pipeline = pipeline
		p.state = stateRunning
	}

	for {
		if err := ctx.Err(); err != nil {
			return p.fail(err)
		}
		if p.pipeline.Complete() {
			p.state = stateDone
			return false
		}

		result, err := p.pipeline.NextBatch()
		if err != nil {
			return p.fail(fmt.Errorf("query pipeline failed: %w", err))
		}

		// Emit items as soon as they exist. Any requests in the same
		// result are re-issued by the pipeline on the next batch.
		if len(result.Items) > 0 {
			p.page = &Page{Items: result.Items}
			metrics.QueryPages.WithLabelValues("ok").Inc()
			return true
		}
		if result.Completed {
			p.state = stateDone
			return false
		}
		if len(result.Requests) == 0 {
			return p.fail(errors.New("query pipeline made no progress"))
		}

		if err := p.exec.fetchAll(ctx, p.container, p.pipeline, result.Requests); err != nil {
			return p.fail(err)
		}
	}
}

// Page returns the page fetched by the last successful Next.
func (p *Pager) Page() *Page {
	return p.page
}

// Err returns the terminal error, if the pager stopped on one.
func (p *Pager) Err() error {
	return p.err
}

func (p *Pager) fail(err error) bool {
	p.err = err
	p.state = stateDone
	// Caller-initiated cancellation is not a query failure.
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		metrics.QueryPages.WithLabelValues("error").Inc()
	}
	return false
}

// createPipeline fetches (or recalls) the query plan and partition map,
// then builds a pipeline through the engine.
func (e *Executor) createPipeline(ctx context.Context, container, text string) (queryengine.Pipeline, error) {
	key := container + "\x00" + text
	if e.planCache != nil {
		if entry, ok := e.planCache.Get(key); ok {
			return e.engine.CreatePipeline(text, entry.plan, entry.pkranges)
		}
	}

	plan, err := e.transport.QueryPlan(ctx, container, text, e.engine.SupportedFeatures())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch query plan: %w", err)
	}
	pkranges, err := e.transport.PartitionKeyRanges(ctx, container)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch partition key ranges: %w", err)
	}
	if e.planCache != nil {
		e.planCache.Add(key, planEntry{plan: plan, pkranges: pkranges})
	}
	return e.engine.CreatePipeline(text, plan, pkranges)
}

// fetchAll performs every outstanding per-partition fetch, then feeds the
// responses back into the pipeline. Fetches run on the fan-out pool when
// one is configured; ProvideData always runs sequentially, since pipelines
// are not required to be safe for concurrent use.
func (e *Executor) fetchAll(ctx context.Context, container string, pipeline queryengine.Pipeline, requests []queryengine.QueryRequest) error {
	sessionToken := ""
	if e.sessions != nil {
		sessionToken, _ = e.sessions.GetSessionToken(container)
	}

	responses := make([]*transport.ItemsResponse, len(requests))
	errs := make([]error, len(requests))
	run := func(i int) {
		responses[i], errs[i] = e.transport.QueryItems(ctx, &transport.ItemsRequest{
			Container:           container,
			PartitionKeyRangeID: requests[i].PartitionKeyRangeID,
			Query:               pipeline.Query(),
			Continuation:        requests[i].Continuation,
			SessionToken:        sessionToken,
		})
	}

	if e.pool != nil && len(requests) > 1 {
		var wg sync.WaitGroup
		for i := range requests {
			i := i
			wg.Add(1)
			if err := e.pool.Submit(func() {
				defer wg.Done()
				run(i)
			}); err != nil {
				errs[i] = err
				wg.Done()
			}
		}
		wg.Wait()
	} else {
		for i := range requests {
			run(i)
		}
	}

	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("fetch for partition %s failed: %w", requests[i].PartitionKeyRangeID, err)
		}
	}

	for i, resp := range responses {
		if e.sessions != nil && resp.SessionToken != "" {
			if err := e.sessions.SetSessionToken(container, resp.SessionToken); err != nil {
				e.log.Warn("discarding malformed session token from response",
					"container", container,
					"partition", requests[i].PartitionKeyRangeID,
					"error", err)
			}
		}
		err := pipeline.ProvideData(&queryengine.QueryResult{
			PartitionKeyRangeID: requests[i].PartitionKeyRangeID,
			NextContinuation:    resp.NextContinuation,
			Data:                resp.Data,
		})
		if err != nil {
			return fmt.Errorf("query pipeline rejected data: %w", err)
		}
	}
	return nil
}
