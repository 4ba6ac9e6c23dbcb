package main

import (
	"github.com/gofrs/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ UIDHandler = (*IDsHandler)(nil) // ensure IDsHandler implements UIDHandler.

// UIDHandler generates request ids and checks book ids.
type UIDHandler interface {
	Generate(prefix string) string
	IsValid(id string) bool
}

// IDsHandler implements the UIDHandler interface.
type IDsHandler struct{}

// NewIDsHandler returns a ready to use IDsHandler.
func NewIDsHandler() *IDsHandler {
	return &IDsHandler{}
}

// Generate provides a random unique identifier with the given prefix.
func (idh *IDsHandler) Generate(prefix string) string {
	id, _ := uuid.NewV4()
	return prefix + ":" + id.String()
}

// IsValid reports whether id is addressable as a book id.
func (idh *IDsHandler) IsValid(id string) bool {
	return IsValidBookID(id)
}

// IsValidBookID reports whether id is a 24 characters hexadecimal
// string, the format of document ids in the store. Case is ignored.
func IsValidBookID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}
