package repository

import "errors"

// ErrDuplicateUser is returned when an insert violates the unique
// constraints on username or email.
var ErrDuplicateUser = errors.New("username or email already exists")
