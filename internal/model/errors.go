package model

import "errors"

var (
	// ErrInvalidKey means the caller key is malformed or unknown
	ErrInvalidKey = errors.New("invalid api key")
	// ErrWrongMode means the key is valid but not for this operation
	ErrWrongMode = errors.New("api key not valid for this mode")
	// ErrValidation means the request body is malformed
	ErrValidation = errors.New("invalid request")
	// ErrServiceTimeout means an analysis service exceeded its budget
	ErrServiceTimeout = errors.New("service timed out")
	// ErrServiceUnavailable means a non-2xx or connection failure from a service
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrOversizeAsset means an asset exceeded its cap; it is dropped, never surfaced
	ErrOversizeAsset = errors.New("asset exceeds size cap")
	// ErrAllServicesFailed means every enabled analysis service failed
	ErrAllServicesFailed = errors.New("all analysis services failed")
)
