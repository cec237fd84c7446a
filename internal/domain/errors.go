// Package domain holds error kinds shared by the model packages so the
// HTTP layer can map them to status codes.
package domain

// ValidationError reports input that violates a model invariant.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// ConflictError reports a uniqueness violation, such as a duplicate name.
type ConflictError string

func (e ConflictError) Error() string { return string(e) }
