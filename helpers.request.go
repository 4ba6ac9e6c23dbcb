package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-playground/validator/v10"
)

const (
	MsgFieldsMustNotBeEmpty   = "The fields must not be empty."
	MsgAtLeastOneFieldNeeded  = "At least one of the fields must not be empty."
	MsgBookIDNotValid         = "The book ID is not valid"
	MsgBookNotFound           = "The book was not found."
	msgBookDeletedFormat      = "The book %s deleted."
	publicationDateFieldError = "publication_date: cannot parse %q as a date: %v"
)

var (
	validate = validator.New()

	errEmptyRequestBody = errors.New("request body is empty")
)

// BookRequest is the payload accepted by create, replace and patch
// endpoints. Pointer fields tell an absent field from a present one.
type BookRequest struct {
	Title           *string `json:"title"`
	Author          *string `json:"author"`
	Genre           *string `json:"genre"`
	PublicationDate *string `json:"publication_date"`
}

// createBookInput carries the create payload once absent fields
// are flattened to empty values.
type createBookInput struct {
	Title           string `validate:"required"`
	Author          string `validate:"required"`
	Genre           string `validate:"required"`
	PublicationDate string `validate:"required"`
}

// DecodeBookRequestBody reads the JSON content of a book request.
func DecodeBookRequestBody(r *http.Request, req *BookRequest) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errEmptyRequestBody
	}
	return json.NewDecoder(r.Body).Decode(req)
}

// ValidateCreate ensures all four fields are present and not empty.
func (req *BookRequest) ValidateCreate() error {
	in := createBookInput{
		Title:           valueOf(req.Title),
		Author:          valueOf(req.Author),
		Genre:           valueOf(req.Genre),
		PublicationDate: valueOf(req.PublicationDate),
	}
	return validate.Struct(in)
}

// HasAny reports whether at least one field is present and not empty.
func (req *BookRequest) HasAny() bool {
	return valueOf(req.Title) != "" ||
		valueOf(req.Author) != "" ||
		valueOf(req.Genre) != "" ||
		valueOf(req.PublicationDate) != ""
}

// NewBook builds a book from an already validated create request.
func (req *BookRequest) NewBook() (Book, error) {
	book := Book{}
	err := req.ApplyTo(&book)
	return book, err
}

// ApplyTo overwrites the fields of book with every field present and
// not empty in the request. An empty string leaves the field unchanged.
// The book is left untouched if the publication date cannot be parsed.
func (req *BookRequest) ApplyTo(book *Book) error {
	pubDate := book.PublicationDate
	if v := valueOf(req.PublicationDate); v != "" {
		t, err := ParsePublicationDate(v)
		if err != nil {
			return err
		}
		pubDate = t
	}
	if v := valueOf(req.Title); v != "" {
		book.Title = v
	}
	if v := valueOf(req.Author); v != "" {
		book.Author = v
	}
	if v := valueOf(req.Genre); v != "" {
		book.Genre = v
	}
	book.PublicationDate = pubDate
	return nil
}

// ParsePublicationDate accepts the usual date layouts and returns the
// date in UTC. Values without zone are read as UTC.
func ParsePublicationDate(s string) (time.Time, error) {
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf(publicationDateFieldError, s, err)
	}
	return t.UTC(), nil
}

func valueOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
