package models

// Membership is one user's participation in one group.
//
// AssignedTo is empty until the group's owner performs a draw; afterwards
// it holds the user ID of the member this member gifts to. Each viewer may
// only ever resolve their own AssignedTo edge — the full mapping is never
// exposed in bulk.
type Membership struct {
	// ID is the unique identifier for the membership row (UUID format).
	ID string

	// GroupID references the owning group.
	GroupID string

	// UserID references the member's user account.
	UserID string

	// UserEmail is the member's email snapshotted at join time.
	UserEmail string

	// UserName is the member's display name snapshotted at join time.
	UserName string

	// AssignedTo is the user ID of this member's assigned recipient.
	// Empty until a draw has been performed; overwritten on redraw.
	AssignedTo string

	// CreatedAt is the Unix timestamp when the member joined.
	CreatedAt int64
}
