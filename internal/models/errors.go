package models

import "errors"

// Failure taxonomy for the extraction pipeline. Each stage wraps one of
// these sentinels so handlers can map failures to HTTP responses with
// errors.Is, regardless of how many layers added context on the way up.
var (
	// ErrUnreadablePDF means the uploaded bytes are not a valid PDF, or the
	// document is encrypted and cannot be opened.
	ErrUnreadablePDF = errors.New("unreadable PDF")

	// ErrAuthentication means the model API credential is missing or rejected.
	ErrAuthentication = errors.New("model API authentication failed")

	// ErrRateLimited means the model endpoint returned a rate-limit response.
	// Retryable with backoff.
	ErrRateLimited = errors.New("model API rate limited")

	// ErrTransientNetwork covers transport failures, timeouts and 5xx
	// responses from the model endpoint. Retryable with backoff.
	ErrTransientNetwork = errors.New("transient network error")

	// ErrUpstreamRefusal means the model declined the request or returned
	// content that cannot be used. Not retryable.
	ErrUpstreamRefusal = errors.New("model refused the request")

	// ErrMalformedResponse means the model reply contained no parsable
	// transaction rows at all.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrExport means the table view could not be serialized to a workbook.
	ErrExport = errors.New("export failed")

	// ErrStatementNotFound means the statement id is unknown or its session
	// has expired.
	ErrStatementNotFound = errors.New("statement not found")
)
