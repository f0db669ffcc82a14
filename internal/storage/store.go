// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/pvidal/amigoinvisible/internal/models"
)

// ErrNotFound is returned by lookups when no row matches.
var ErrNotFound = errors.New("not found")

// Store defines the interface for group-drawing storage operations.
// This abstraction allows swapping storage backends (SQLite, in-memory, etc.)
// without changing the service layer.
type Store interface {
	// CreateUser persists a new user account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email.
	// Returns (nil, nil) when no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID.
	// Returns (nil, nil) when the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// CreateGroup persists a new group. The group's ID and CreatedAt are
	// populated by the store if unset. Fails if the join code is taken.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by ID. Returns ErrNotFound if missing.
	GetGroup(ctx context.Context, id string) (*models.Group, error)

	// GetGroupByCode retrieves a group by its join code.
	// Returns ErrNotFound if no group has that code.
	GetGroupByCode(ctx context.Context, code string) (*models.Group, error)

	// ListGroupsByUser retrieves every group the user is a member of.
	ListGroupsByUser(ctx context.Context, userID string) ([]*models.Group, error)

	// DeleteGroup removes a group and all of its memberships.
	// Returns ErrNotFound if the group does not exist.
	DeleteGroup(ctx context.Context, id string) error

	// AddMember persists a new membership. The membership's ID and
	// CreatedAt are populated by the store if unset.
	AddMember(ctx context.Context, member *models.Membership) error

	// GetMember retrieves one user's membership in one group.
	// Returns ErrNotFound if the user is not a member.
	GetMember(ctx context.Context, groupID, userID string) (*models.Membership, error)

	// ListMembers retrieves all memberships of a group.
	ListMembers(ctx context.Context, groupID string) ([]*models.Membership, error)

	// ApplyDraw commits a draw result: every membership in assignedTo
	// (membership ID -> assigned user ID) gets its assigned_to column set,
	// and the group's is_drawn flag is raised, all atomically. Either the
	// whole draw is applied or the group's prior state is left intact.
	ApplyDraw(ctx context.Context, groupID string, assignedTo map[string]string) error

	// Subscribe registers a callback invoked after successful mutations.
	// Delivery is fire-and-forget; the returned function unsubscribes.
	Subscribe(fn func(ChangeEvent)) (unsubscribe func())

	// Close releases any resources held by the store.
	Close() error
}
