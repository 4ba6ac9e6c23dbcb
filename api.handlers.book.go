package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// respond sends data and logs when the response could not be written.
func (api *APIHandler) respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if err := WriteResponse(r.Context(), w, status, data); err != nil {
		api.logger.Error("failed to send response",
			zap.String("request.id", GetValueFromContext(r.Context(), RequestIDContextKey)),
			zap.Error(err),
		)
	}
}

// respondError sends `{"message": message}` with status.
func (api *APIHandler) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if err := WriteErrorResponse(r.Context(), w, status, message); err != nil {
		api.logger.Error("failed to send error response",
			zap.String("request.id", GetValueFromContext(r.Context(), RequestIDContextKey)),
			zap.Error(err),
		)
	}
}

// ListBooks godoc
//
//	@Summary	List all books
//	@Tags		books
//	@Produce	json
//	@Success	200	{array}		Book
//	@Success	204	"no book stored"
//	@Failure	500	{object}	APIError
//	@Router		/books [get]
func (api *APIHandler) ListBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	books, err := api.bookService.GetAll(r.Context())
	if err != nil {
		api.logger.Error("failed to get all books", zap.String("request.id", requestID), zap.Error(err))
		api.respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	api.logger.Info("success to get all books", zap.String("request.id", requestID), zap.Int("books.total", len(books)))
	if len(books) == 0 {
		api.respond(w, r, http.StatusNoContent, books)
		return
	}
	api.respond(w, r, http.StatusOK, books)
}

// CreateBook godoc
//
//	@Summary	Create a book
//	@Tags		books
//	@Accept		json
//	@Produce	json
//	@Param		book	body		BookRequest	true	"all four fields are required"
//	@Success	201		{object}	Book
//	@Failure	400		{object}	APIError
//	@Router		/books [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req BookRequest
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	if err := DecodeBookRequestBody(r, &req); err != nil && !errors.Is(err, errEmptyRequestBody) {
		api.logger.Error("failed to decode book request", zap.String("request.id", requestID), zap.Error(err))
		api.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := req.ValidateCreate(); err != nil {
		api.logger.Error("failed to create book", zap.String("request.id", requestID), zap.Error(err))
		api.respondError(w, r, http.StatusBadRequest, MsgFieldsMustNotBeEmpty)
		return
	}

	book, err := req.NewBook()
	if err != nil {
		api.logger.Error("failed to create book", zap.String("request.id", requestID), zap.Error(err))
		api.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	book, err = api.bookService.Add(r.Context(), book)
	if err != nil {
		api.logger.Error("failed to create book", zap.String("request.id", requestID), zap.Error(err))
		api.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	api.logger.Info("success to create book", zap.String("book.id", book.ID.Hex()), zap.String("request.id", requestID))
	api.respond(w, r, http.StatusCreated, book)
}

// GetOneBook godoc
//
//	@Summary	Get a book
//	@Tags		books
//	@Produce	json
//	@Param		id	path		string	true	"24 hexadecimal characters"
//	@Success	200	{object}	Book
//	@Failure	404	{object}	APIError
//	@Failure	500	{object}	APIError
//	@Router		/books/{id} [get]
func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, book Book) {
	api.logger.Info("success to get book",
		zap.String("book.id", book.ID.Hex()),
		zap.String("request.id", GetValueFromContext(r.Context(), RequestIDContextKey)),
	)
	api.respond(w, r, http.StatusOK, book)
}

// ReplaceBook godoc
//
//	@Summary	Replace a book
//	@Description	Fields absent or empty in the body keep their stored value.
//	@Tags		books
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string		true	"24 hexadecimal characters"
//	@Param		book	body		BookRequest	true	"fields to overwrite"
//	@Success	200		{object}	Book
//	@Failure	400		{object}	APIError
//	@Failure	404		{object}	APIError
//	@Router		/books/{id} [put]
func (api *APIHandler) ReplaceBook(w http.ResponseWriter, r *http.Request, book Book) {
	var req BookRequest
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	if err := DecodeBookRequestBody(r, &req); err != nil && !errors.Is(err, errEmptyRequestBody) {
		api.logger.Error("failed to decode book request", zap.String("request.id", requestID), zap.Error(err))
		api.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	api.updateBook(w, r, book, &req)
}

// PatchBook godoc
//
//	@Summary	Partially update a book
//	@Tags		books
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string		true	"24 hexadecimal characters"
//	@Param		book	body		BookRequest	true	"at least one field"
//	@Success	200		{object}	Book
//	@Failure	400		{object}	APIError
//	@Failure	404		{object}	APIError
//	@Router		/books/{id} [patch]
func (api *APIHandler) PatchBook(w http.ResponseWriter, r *http.Request, book Book) {
	var req BookRequest
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	if err := DecodeBookRequestBody(r, &req); err != nil && !errors.Is(err, errEmptyRequestBody) {
		api.logger.Error("failed to decode book request", zap.String("request.id", requestID), zap.Error(err))
		api.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if !req.HasAny() {
		api.logger.Error("no field to update", zap.String("book.id", book.ID.Hex()), zap.String("request.id", requestID))
		api.respondError(w, r, http.StatusBadRequest, MsgAtLeastOneFieldNeeded)
		return
	}
	api.updateBook(w, r, book, &req)
}

// updateBook applies req onto book and persists the whole document.
func (api *APIHandler) updateBook(w http.ResponseWriter, r *http.Request, book Book, req *BookRequest) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	if err := req.ApplyTo(&book); err != nil {
		api.logger.Error("failed to update book", zap.String("book.id", book.ID.Hex()), zap.String("request.id", requestID), zap.Error(err))
		api.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	book, err := api.bookService.Update(r.Context(), book)
	if err != nil {
		api.logger.Error("failed to update book", zap.String("book.id", book.ID.Hex()), zap.String("request.id", requestID), zap.Error(err))
		api.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	api.logger.Info("success to update book", zap.String("book.id", book.ID.Hex()), zap.String("request.id", requestID))
	api.respond(w, r, http.StatusOK, book)
}

// DeleteBook godoc
//
//	@Summary	Delete a book
//	@Tags		books
//	@Produce	json
//	@Param		id	path		string	true	"24 hexadecimal characters"
//	@Success	200	{object}	APIMessage
//	@Failure	404	{object}	APIError
//	@Failure	500	{object}	APIError
//	@Router		/books/{id} [delete]
func (api *APIHandler) DeleteBook(w http.ResponseWriter, r *http.Request, book Book) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	err := api.bookService.Delete(r.Context(), book)
	if errors.Is(err, ErrBookNotFound) {
		api.logger.Error("book does not exist", zap.String("book.id", book.ID.Hex()), zap.String("request.id", requestID))
		api.respondError(w, r, http.StatusNotFound, MsgBookNotFound)
		return
	}
	if err != nil {
		api.logger.Error("failed to delete book", zap.String("book.id", book.ID.Hex()), zap.String("request.id", requestID), zap.Error(err))
		api.respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	api.logger.Info("success to delete book", zap.String("book.id", book.ID.Hex()), zap.String("request.id", requestID))
	api.respond(w, r, http.StatusOK, &APIMessage{Message: fmt.Sprintf(msgBookDeletedFormat, book.Title)})
}
