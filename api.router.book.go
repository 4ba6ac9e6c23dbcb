package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupBookRoutes injects the status and books endpoints. Single book
// endpoints go through the WithBook loader first.
func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.GET("/", m.public(api.Index))
	router.GET("/status", m.public(api.Status))

	router.GET("/books", m.public(api.ListBooks))
	router.POST("/books", m.public(api.CreateBook))
	router.GET("/books/:id", m.public(api.WithBook(api.GetOneBook)))
	router.PUT("/books/:id", m.public(api.WithBook(api.ReplaceBook)))
	router.PATCH("/books/:id", m.public(api.WithBook(api.PatchBook)))
	router.DELETE("/books/:id", m.public(api.WithBook(api.DeleteBook)))
	return router
}
