package repository

import "errors"

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when trying to create a user with an existing email
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrDuplicateSession is returned when trying to store a refresh session with an existing hash
	ErrDuplicateSession = errors.New("session with this token hash already exists")

	// ErrDuplicateCorporateName is returned when an entreprise already owns the name
	ErrDuplicateCorporateName = errors.New("entreprise with this corporate name already exists")

	// ErrDuplicateReference is returned on annonce reference collisions
	ErrDuplicateReference = errors.New("annonce with this reference already exists")
)
