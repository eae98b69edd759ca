package bundoc

import (
	"github.com/kartikbazzad/bundoc-go/queryengine"
	"github.com/kartikbazzad/bundoc-go/transport"
)

type clientSettings struct {
	engine    queryengine.Engine
	transport transport.Interface
}

// Option customizes a Client.
type Option func(*clientSettings)

// WithQueryEngine replaces the reference query engine with an external
// implementation of the queryengine contract.
func WithQueryEngine(engine queryengine.Engine) Option {
	return func(s *clientSettings) {
		s.engine = engine
	}
}

// WithTransport replaces the HTTP gateway transport, e.g. with a test
// double.
func WithTransport(t transport.Interface) Option {
	return func(s *clientSettings) {
		s.transport = t
	}
}
