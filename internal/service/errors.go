package service

import "errors"

// Service-level errors. Handlers translate these into HTTP statuses; the
// services themselves guarantee that any operation failing with one of
// these performed no store mutation.
var (
	// Authorization
	ErrNotOwner  = errors.New("only the group owner can perform this action")
	ErrNotMember = errors.New("not a member of this group")

	// Precondition
	ErrEmptyGroupName = errors.New("group name required")
	ErrEmptyJoinCode  = errors.New("join code required")
	ErrNotConfirmed   = errors.New("redrawing discards the previous assignments and must be confirmed")

	// Not found
	ErrGroupNotFound = errors.New("group not found")

	// Conflict
	ErrAlreadyMember = errors.New("already a member of this group")
	ErrAlreadyDrawn  = errors.New("the draw has already been performed in this group")
	ErrNotDrawn      = errors.New("the draw has not been performed yet")
	ErrCodeExhausted = errors.New("could not allocate an unused join code")
)
