package model

import "errors"

// Cycle failure categories.
// Every error returned by the fetch, extract, storage and notify layers wraps
// exactly one of these, so callers can branch with errors.Is.
var (
	// ErrFetch is returned for transport failures and non-success responses
	// on any page request.
	ErrFetch = errors.New("fetch error")

	// ErrParse is returned when a page payload does not have the expected
	// shape: missing envelope keys, missing pager element or attribute,
	// or a listing card without a usable detail link.
	ErrParse = errors.New("parse error")

	// ErrPersistence is returned when the snapshot store cannot be read
	// or the stored snapshot cannot be replaced.
	ErrPersistence = errors.New("persistence error")

	// ErrNotify is returned when the change notification cannot be delivered.
	ErrNotify = errors.New("notify error")
)
