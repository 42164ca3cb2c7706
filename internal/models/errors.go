package models

import "errors"

// Application-wide standard errors
var (
	// Common resource errors
	ErrNotFound = errors.New("resource not found")

	// Authentication / authorization errors
	ErrUnauthorized = errors.New("unauthorized") // Authentication required or failed
	ErrForbidden    = errors.New("forbidden")    // Authenticated, but lacks permission

	// Token errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// Validation errors
	ErrInvalidInput       = errors.New("invalid input data")
	ErrInvalidPrivacy     = errors.New("invalid privacy level")
	ErrImageSourceInvalid = errors.New("image must have either a file or a URL, not both")

	// Group errors
	ErrAlreadyMember = errors.New("user is already a member of this group")
	ErrNotMember     = errors.New("user is not a member of this group")

	// Story errors
	ErrNotEligible = errors.New("thing is too short to become a story")

	// Pattern errors
	ErrNotEnoughThings = errors.New("not enough things for pattern analysis")

	// General request/server errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
)
