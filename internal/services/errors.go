package services

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error kinds. Every error a service returns on purpose unwraps to one of these,
// and the HTTP layer picks a status code with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrAuth       = errors.New("authentication failed")
	ErrExpired    = errors.New("expired")

	// ErrForbidden is an ErrAuth raised by an ownership or recipient check.
	ErrForbidden = newError(ErrAuth, "forbidden")
)

// Error is a user-facing message tagged with its kind.
type Error struct {
	kind error
	msg  string
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

var (
	ErrMissingFields = newError(ErrValidation, "Provide Required Fields!")
	ErrInvalidID     = newError(ErrValidation, "Invalid id")
)

// ParseID converts a hex document id from a URL into an ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}
