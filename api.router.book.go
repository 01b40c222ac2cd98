package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupBookRoutes injects book related the api endpoints. Reading is open to
// everyone while each mutation requires an authenticated caller. The id guard
// runs first so malformed ids are rejected before the credentials check.
func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	base := api.config.Server.BasePath
	router.GET("/", m.public(api.Index))
	router.GET("/status", m.public(api.Status))
	router.GET(base, m.public(api.GetAllBooks))
	router.GET(base+"/:id", m.public(api.BookIDGuard(api.GetOneBook)))
	router.POST(base, m.public(api.Authenticate(api.CreateBook)))
	router.PUT(base+"/:id", m.public(api.BookIDGuard(api.Authenticate(api.UpdateBook))))
	router.DELETE(base+"/:id", m.public(api.BookIDGuard(api.Authenticate(api.DeleteOneBook))))
	return router
}
