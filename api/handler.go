package api

import (
	"github.com/lockboxhq/lockbox/http"
)

// Handler answers a subset of requests. CanHandle must not modify the
// request; Handle fills in the response.
type Handler interface {
	CanHandle(req *http.Request) bool
	Handle(req *http.Request, res *http.Response)
}

// Mux dispatches to the first handler that claims a request.
type Mux struct {
	handlers []Handler
}

func NewMux(handlers ...Handler) *Mux {
	return &Mux{handlers: handlers}
}

// Serve is the engine's handler function.
func (mux *Mux) Serve(req *http.Request, res *http.Response) {
	for _, handler := range mux.handlers {
		if handler.CanHandle(req) {
			handler.Handle(req, res)
			return
		}
	}

	res.WithStatus(http.StatusNotFound).WithText("Not Found")
}
