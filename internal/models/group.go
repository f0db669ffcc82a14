package models

// Group represents a drawing group.
//
// A group is created by one user (the owner), joined by others via Code,
// and drawn by the owner once everyone is in: IsDrawn flips to true on the
// first successful draw and stays true across redraws.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Amigos del trabajo").
	Name string

	// Code is the 6-character shareable join code. Unique among groups.
	Code string

	// CreatedBy is the user ID of the group owner. Only the owner may
	// perform the draw or delete the group.
	CreatedBy string

	// IsDrawn reports whether a draw has been committed at least once.
	IsDrawn bool

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}
