package domain

import "errors"

// ErrEmptyReport is returned when a document does not contain a coverage report root.
var ErrEmptyReport = errors.New("coverage report is empty")
