// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a remote model failure. The batch dispatcher bases
// its retry decision on this enum alone; only the backend adapters inspect
// transport errors or status codes.
type ErrorKind int

const (
	// KindOther is any remote or network failure that is neither throttling
	// nor a malformed reply. Not retried.
	KindOther ErrorKind = iota

	// KindRateLimited is transient remote throttling (HTTP 429 /
	// RESOURCE_EXHAUSTED). Retried with backoff by the dispatcher.
	KindRateLimited

	// KindInvalidResponse means the model replied, but the reply could not
	// be parsed into the expected structure. Treated as non-transient.
	KindInvalidResponse
)

// String returns a stable label for logs and metrics.
func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindInvalidResponse:
		return "invalid_response"
	default:
		return "other"
	}
}

// RemoteError is the classified failure of one remote model call.
type RemoteError struct {
	Kind  ErrorKind
	Model string
	Err   error
}

func (e *RemoteError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("%s (%s): %v", e.Kind, e.Model, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// NewRemoteError wraps err with a classification. A nil err yields nil.
func NewRemoteError(kind ErrorKind, model string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Kind: kind, Model: model, Err: err}
}

// KindOf extracts the classification from err. Unclassified errors report
// KindOther.
func KindOf(err error) ErrorKind {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindOther
}

// IsRateLimited reports whether err is classified as remote throttling.
func IsRateLimited(err error) bool {
	return KindOf(err) == KindRateLimited
}

// IsInvalidResponse reports whether err is classified as an unparseable reply.
func IsInvalidResponse(err error) bool {
	return KindOf(err) == KindInvalidResponse
}
