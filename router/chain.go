package router

import (
	"net/http"
)

// Chain is a handler plus the middlewares wrapping it.
type Chain struct {
	handler     http.Handler
	middlewares []func(http.Handler) http.Handler
}

// Chains maps endpoint patterns to their chains.
type Chains map[string]*Chain

// NewChain panics on a nil handler.
func NewChain(h http.Handler) *Chain {
	if h == nil {
		panic("chain handler cannot be nil")
	}
	return &Chain{handler: h}
}

// WithMiddleware appends middlewares. The first middleware added is the
// outermost one and runs first:
//
//	NewChain(h).WithMiddleware(a, b).WithMiddleware(c)
//
// serves a request as a -> b -> c -> h.
func (c *Chain) WithMiddleware(middlewares ...func(http.Handler) http.Handler) *Chain {
	c.middlewares = append(c.middlewares, middlewares...)
	return c
}

// Handler returns the wrapped handler.
func (c *Chain) Handler() http.Handler {
	h := c.handler
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		h = c.middlewares[i](h)
	}
	return h
}
