package domain

import "errors"

var (
	// ErrQueryFailed wraps store failures during reload or page jumps.
	ErrQueryFailed = errors.New("catalog query failed")
	// ErrIncrementalFetchFailed wraps store failures during load-more.
	ErrIncrementalFetchFailed = errors.New("incremental fetch failed")
	// ErrSuperseded is returned when a newer request fenced off this one's response.
	ErrSuperseded = errors.New("response superseded by a newer request")
	// ErrControllerClosed is returned after teardown.
	ErrControllerClosed = errors.New("page controller closed")

	ErrSessionNotFound    = errors.New("browse session not found")
	ErrInvalidSort        = errors.New("invalid sort mode")
	ErrInvalidViewDensity = errors.New("invalid view density")
	ErrInvalidPriceRange  = errors.New("invalid price range")
	ErrUnknownField       = errors.New("unknown query field")
)
