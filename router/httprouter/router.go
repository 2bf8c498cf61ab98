// Package httprouter adapts julienschmidt/httprouter to router.Router.
package httprouter

import (
	"net/http"

	jshttprouter "github.com/julienschmidt/httprouter"
	"github.com/prankvz/sentinel/router"
)

type Router struct {
	rt *jshttprouter.Router
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.rt.ServeHTTP(w, req)
}

// Handle registers handler for a "METHOD /path" pattern. Patterns without a
// method are registered for GET.
func (r *Router) Handle(pattern string, handler http.Handler) {
	method, path := router.SplitPattern(pattern)
	if method == "" {
		method = http.MethodGet
	}
	r.rt.Handler(method, path, handler)
}

func (r *Router) Register(chains router.Chains) {
	for pattern, chain := range chains {
		r.Handle(pattern, chain.Handler())
	}
}

// New returns a router answering unknown routes and wrong methods with
// notFound and methodNotAllowed. Nil handlers keep the httprouter defaults.
func New(notFound, methodNotAllowed http.Handler) router.Router {
	rt := jshttprouter.New()
	if notFound != nil {
		rt.NotFound = notFound
	}
	if methodNotAllowed != nil {
		rt.MethodNotAllowed = methodNotAllowed
	}
	return &Router{rt: rt}
}
