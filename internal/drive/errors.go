package drive

import "fmt"

// ErrRootFolder is returned when an operation would delete the root folder.
var ErrRootFolder = &ForbiddenError{Code: "cannot_delete_root"}

// ValidationError indicates a missing or empty required field.
// The HTTP layer maps it to a 400 response.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError indicates that an identifier did not resolve.
// The HTTP layer maps it to a 404 response with Msg as the error code.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// ForbiddenError indicates an operation that is never allowed,
// regardless of request content.
type ForbiddenError struct {
	Code string
}

func (e *ForbiddenError) Error() string { return e.Code }

// ConflictError indicates a folder deletion blocked by files still
// referencing it. Count includes trashed files.
type ConflictError struct {
	Count int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("folder not empty: %d file(s)", e.Count)
}

// DiskError indicates a disk operation that failed where the metadata
// record must not diverge (rename, move, upload). The record is left
// unchanged. The HTTP layer maps it to a 500 response.
type DiskError struct {
	Op  string
	Err error
}

func (e *DiskError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *DiskError) Unwrap() error { return e.Err }
