package domain

import "errors"

var ErrTokenMalformed = errors.New("token malformed")
var ErrTokenExpired = errors.New("token expired")
var ErrTokenInvalid = errors.New("token invalid")

// Identity is the verified content of a bearer token: who the caller
// claims to be and which role the token asserts. It is derived, never
// stored.
type Identity struct {
	SubjectID string
	Role      string
}
