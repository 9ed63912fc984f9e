package http

import "net/http"

// Handler is the handler shape run and meta routes are written against
type Handler = func(http.ResponseWriter, *http.Request)

// Router is what modules mount onto; chi backs it in production
type Router interface {
	Get(path string, h Handler)
	Post(path string, h Handler)
	Handle(path string, h http.Handler)
	Use(mw ...func(http.Handler) http.Handler)
	Group(fn func(Router))
	Route(pattern string, fn func(Router))

	// Mux exposes the root handler for http.Server and httptest
	Mux() http.Handler
}
