package httpd

// HandlerFunc computes a response from a parsed request. Handlers must be
// pure: no I/O, no mutation of the request.
type HandlerFunc func(*Request) *Response

// Router maps exact literal paths to handlers. Routes are registered at
// startup and the table is read-only while serving; there is no prefix or
// pattern matching.
type Router struct {
	routes   map[string]HandlerFunc
	notFound HandlerFunc
}

func NewRouter() *Router {
	return &Router{
		routes:   make(map[string]HandlerFunc),
		notFound: NotFoundHandler,
	}
}

// Handle registers a handler for an exact path. Must not be called once
// the server is accepting connections.
func (r *Router) Handle(path string, h HandlerFunc) {
	r.routes[path] = h
}

// Dispatch returns the handler for |path|, or the NotFound handler when
// no exact match exists. A miss is a defined outcome, never an error.
func (r *Router) Dispatch(path string) HandlerFunc {
	if h, ok := r.routes[path]; ok {
		return h
	}
	return r.notFound
}
