package store

import "github.com/mealcycle/apiserver/internal/apperr"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = apperr.ErrNotFound
