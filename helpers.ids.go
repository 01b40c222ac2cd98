package main

import (
	"unicode/utf8"

	"github.com/gofrs/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ UIDHandler = (*IDsHandler)(nil) // ensure IDsHandler implements UIDHandler.

// UIDHandler is an interface for getting and checking unique ids.
type UIDHandler interface {
	Generate(prefix string) string
	NewBookID() string
	IsValidBookID(id string) bool
}

// IDsHandler implements the UIDHandler interface.
type IDsHandler struct{}

// NewIDsHandler returns a ready to use IDsHandler.
func NewIDsHandler() *IDsHandler {
	return &IDsHandler{}
}

// Generate provides a random uuid with the custom prefix. It is used for requests ids.
func (idh *IDsHandler) Generate(prefix string) string {
	id, _ := uuid.NewV4()
	return prefix + ":" + id.String()
}

// NewBookID provides a new object id in its hexadecimal form. Drivers without
// native identifiers use it so that every store hands out the same ids shape.
func (idh *IDsHandler) NewBookID() string {
	return primitive.NewObjectID().Hex()
}

// IsValidBookID only checks the shape of the id. Whether a 24 chars
// id points to an existing record is decided by the storage.
// Characters are counted, not bytes.
func (idh *IDsHandler) IsValidBookID(id string) bool {
	return utf8.RuneCountInString(id) == BookIDLength
}

// checkBookID ensures a caller-supplied id can be stored as an object id.
func checkBookID(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return ErrInvalidBookID
	}
	return nil
}
