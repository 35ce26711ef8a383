// Package datalake is the Data-Lake Processor: batched signed-URL minting
// plus per-object streaming upload. A Handle borrows its Core's http client,
// client_id, and access token (weak reference: the Core must outlive the
// Handle) rather than owning a second copy of any of them, per spec.md §3's
// ownership rules.
package datalake

import (
	"context"
	"io"
)

// UploadCallback produces the streaming request body for one upload,
// given the object's caller-supplied UserContext.
type UploadCallback func(ctx context.Context, userContext any) (io.Reader, error)

// Object is a Data-Lake upload object. Lifecycle: created empty, Path set
// by the caller, SignedURL populated by GenerateUploadURLs, consumed by
// Upload. SignedURL is cleared by GenerateUploadURLs before each
// URL-generation call so a partial re-mint is detectable.
type Object struct {
	Path           string
	SignedURL      string
	Size           int64
	UploadCallback UploadCallback
	UserContext    any
}

// NewObject builds an Object ready for a GenerateUploadURLs call.
func NewObject(path string, size int64, callback UploadCallback, userContext any) *Object {
	return &Object{Path: path, Size: size, UploadCallback: callback, UserContext: userContext}
}
