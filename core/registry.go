package core

import (
	"context"
	"fmt"
	"sync"
)

// Matcher reports whether a route applies to a message.
type Matcher func(msg InboundMessage) bool

// HandlerFunc handles a matched message and reports its terminal state.
type HandlerFunc func(ctx context.Context, msg InboundMessage) Result

type route struct {
	name   string
	match  Matcher
	handle HandlerFunc
}

// Routes is an ordered table of predicate/handler pairs. A message is handled
// by the first route whose Matcher accepts it.
type Routes struct {
	mu     sync.RWMutex
	routes []route
	names  map[string]bool
}

// NewRoutes creates an empty route table.
func NewRoutes() *Routes {
	return &Routes{
		names: make(map[string]bool),
	}
}

// Add appends a route. Route names must be unique.
func (r *Routes) Add(name string, match Matcher, handle HandlerFunc) error {
	if match == nil || handle == nil {
		return fmt.Errorf("route %q: matcher and handler are required", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.names[name] {
		return fmt.Errorf("route %q already registered", name)
	}
	r.names[name] = true
	r.routes = append(r.routes, route{name: name, match: match, handle: handle})
	return nil
}

// Match returns the first route accepting msg.
func (r *Routes) Match(msg InboundMessage) (string, HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rt := range r.routes {
		if rt.match(msg) {
			return rt.name, rt.handle, true
		}
	}
	return "", nil, false
}

// Names returns route names in evaluation order.
func (r *Routes) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.routes))
	for i, rt := range r.routes {
		names[i] = rt.name
	}
	return names
}
