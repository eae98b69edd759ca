// Package bundoc is the Go client for Bundoc Cloud, a partitioned,
// multi-region document database. The client owns the session-consistency
// state for every container it touches and drives cross-partition queries
// through a pluggable query engine.
package bundoc

import (
	"fmt"

	"github.com/kartikbazzad/bundoc-go/internal/config"
	"github.com/kartikbazzad/bundoc-go/internal/logger"
	"github.com/kartikbazzad/bundoc-go/query"
	"github.com/kartikbazzad/bundoc-go/session"
	"github.com/kartikbazzad/bundoc-go/transport"
)

// Client is a Bundoc Cloud client. It owns one session registry; the
// registry lives exactly as long as the client.
type Client struct {
	transport transport.Interface
	sessions  *session.Registry
	executor  *query.Executor
}

// NewClient creates a client for the gateway at endpoint. Configuration
// not overridden by options comes from BUNDOC_* environment variables and
// an optional .env file.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	cfg := config.Default()
	if err := config.Load("BUNDOC_", &cfg); err != nil {
		return nil, err
	}
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}

	settings := clientSettings{
		engine: query.NewEngine(),
	}
	for _, opt := range opts {
		opt(&settings)
	}

	logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	t := settings.transport
	if t == nil {
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("gateway endpoint is required")
		}
		t = transport.NewGatewayTransport(cfg.Endpoint, cfg.RequestTimeout)
	}

	sessions := session.NewRegistry()
	executor, err := query.NewExecutor(t, settings.engine, query.ExecutorOptions{
		Sessions:      sessions,
		PlanCacheSize: cfg.PlanCacheSize,
		FanOutWorkers: cfg.FanOutWorkers,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		transport: t,
		sessions:  sessions,
		executor:  executor,
	}, nil
}

// Close releases client resources.
func (c *Client) Close() {
	c.executor.Close()
}

// Sessions exposes the client's session registry, for callers that attach
// session tokens to non-query requests or feed back tokens they observe.
func (c *Client) Sessions() *session.Registry {
	return c.sessions
}

// ClearSessions drops all tracked session state, e.g. after a credential
// change or a consistency-level switch.
func (c *Client) ClearSessions() {
	c.sessions.ClearAllSessions()
}

// Container returns a handle for one container.
func (c *Client) Container(id string) *ContainerClient {
	return &ContainerClient{client: c, id: id}
}

// ContainerClient addresses a single container.
type ContainerClient struct {
	client *Client
	id     string
}

// ID returns the container resource ID.
func (cc *ContainerClient) ID() string {
	return cc.id
}

// Query runs a query across all partitions of the container and returns a
// lazy pager over the result pages; each pager step takes the caller's
// context. The pager is single-use; call Query again to restart.
func (cc *ContainerClient) Query(text string) *query.Pager {
	return cc.client.executor.Query(cc.id, text)
}

// SessionToken returns the merged session token for this container, for
// attaching to outgoing requests. The second return is false when no
// token has been observed yet.
func (cc *ContainerClient) SessionToken() (string, bool) {
	return cc.client.sessions.GetSessionToken(cc.id)
}

// ObserveSessionToken feeds back a session token found on a response from
// this container.
func (cc *ContainerClient) ObserveSessionToken(token string) error {
	return cc.client.sessions.SetSessionToken(cc.id, token)
}

// ClearSession drops the session state tracked for this container.
func (cc *ContainerClient) ClearSession() {
	cc.client.sessions.ClearSession(cc.id)
}
