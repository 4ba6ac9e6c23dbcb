package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// LoadOutcome tags the result of a book lookup.
type LoadOutcome int

const (
	BookFound LoadOutcome = iota
	BookIDInvalid
	BookMissing
	BookLoadFailed
)

// LoadResult is what LoadBook hands to the next stage.
type LoadResult struct {
	Outcome LoadOutcome
	Book    Book
	Err     error
}

// BookHandle is a handler stage which receives an already loaded book.
type BookHandle func(w http.ResponseWriter, r *http.Request, book Book)

// LoadBook checks id and fetches the matching book. The store is not
// contacted when id is not a valid book id.
func (api *APIHandler) LoadBook(ctx context.Context, id string) LoadResult {
	if !api.idsHandler.IsValid(id) {
		return LoadResult{Outcome: BookIDInvalid}
	}
	book, err := api.bookService.GetOne(ctx, id)
	switch {
	case errors.Is(err, ErrBookNotFound):
		return LoadResult{Outcome: BookMissing}
	case err != nil:
		return LoadResult{Outcome: BookLoadFailed, Err: err}
	}
	return LoadResult{Outcome: BookFound, Book: book}
}

// WithBook runs LoadBook on the `id` route parameter and calls next only
// when the book was found. Other outcomes are answered here.
func (api *APIHandler) WithBook(next BookHandle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
		id := ps.ByName("id")
		res := api.LoadBook(r.Context(), id)

		var status int
		var message string
		switch res.Outcome {
		case BookFound:
			next(w, r, res.Book)
			return
		case BookIDInvalid:
			api.logger.Error("book id provided is not valid", zap.String("book.id", id), zap.String("request.id", requestID))
			status, message = http.StatusNotFound, MsgBookIDNotValid
		case BookMissing:
			api.logger.Error("book does not exist", zap.String("book.id", id), zap.String("request.id", requestID))
			status, message = http.StatusNotFound, MsgBookNotFound
		default:
			api.logger.Error("failed to get book", zap.String("book.id", id), zap.String("request.id", requestID), zap.Error(res.Err))
			status, message = http.StatusInternalServerError, res.Err.Error()
		}

		if err := WriteErrorResponse(r.Context(), w, status, message); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
	}
}
