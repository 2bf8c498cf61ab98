// Package servemux implements router.Router on net/http's ServeMux, which
// understands "METHOD /path" patterns natively.
package servemux

import (
	"net/http"

	"github.com/prankvz/sentinel/router"
)

type ServeMuxRouter struct {
	*http.ServeMux
}

func (s *ServeMuxRouter) Register(chains router.Chains) {
	for pattern, chain := range chains {
		s.ServeMux.Handle(pattern, chain.Handler())
	}
}

func New() router.Router {
	return &ServeMuxRouter{ServeMux: http.NewServeMux()}
}
