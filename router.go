package xroute

import (
	"net/http"
	"sync"
)

// Routable is implemented by every type that embeds Router.
type Routable interface {
	router() *Router
}

// Router is embedded in user types to make them mountable:
//
//	type Users struct {
//	    xroute.Router
//	    store *Store
//	}
//
// Its endpoints are declared once per type with Define. A Router must not be
// copied after it has been mounted.
type Router struct {
	// Server is the host the router was mounted on. It is set by Server.Mount.
	Server *Server

	// Path is the mount path. Discovery falls back to the source file name
	// when it is empty.
	Path string

	// Doc is merged beneath every endpoint's own document fragment.
	Doc *Operation

	once    sync.Once
	handler http.Handler
	err     error
}

func (r *Router) router() *Router { return r }

// materialize builds the route table on first use and caches it. Later calls
// return the cached table even if the registry has changed since.
func (r *Router) materialize(build func() (http.Handler, error)) (http.Handler, error) {
	r.once.Do(func() {
		r.handler, r.err = build()
	})
	return r.handler, r.err
}
