// Package models defines the core domain models for Amigo Invisible.
//
// # Models
//
//   - User: a registered account; also serves as the profile record
//     (email + display name) that assignment reveals resolve against
//   - Group: a named drawing group with a shareable 6-character join code
//   - Membership: one user's participation in one group, carrying the
//     assigned_to edge once a draw has been performed
//
// # Design Principles
//
//  1. **Avoid circular references**: relationships use ID strings, not pointers
//  2. **Snapshot on join**: Membership copies the user's email and display
//     name at join time, so the member list stays stable even if a profile
//     is later renamed
//  3. **Storage-agnostic**: plain structs with no driver tags; the storage
//     packages own the mapping to their schemas
package models
