// Package memory provides an in-memory implementation of the storage.Store
// interface. It backs the service tests and doubles as a throwaway dev
// backend; data lives only as long as the process.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pvidal/amigoinvisible/internal/models"
	"github.com/pvidal/amigoinvisible/internal/storage"
)

// Ensure MemoryStore implements storage.Store
var _ storage.Store = (*MemoryStore)(nil)

// MemoryStore implements storage.Store with mutex-guarded maps.
// All mutations are atomic under the store's lock, so a draw is applied
// all-or-nothing just like the SQLite transaction.
type MemoryStore struct {
	storage.Notifier

	mu      sync.RWMutex
	users   map[string]*models.User       // by user ID
	groups  map[string]*models.Group      // by group ID
	members map[string]*models.Membership // by membership ID
}

// New creates an empty MemoryStore.
func New() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]*models.User),
		groups:  make(map[string]*models.Group),
		members: make(map[string]*models.Membership),
	}
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

// CreateUser stores a new user. Emails are unique.
func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return fmt.Errorf("email %s already registered", user.Email)
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

// GetUserByEmail returns the user with the given email, or (nil, nil).
func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// GetUserByID returns the user with the given ID, or (nil, nil).
func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// CreateGroup stores a new group. Join codes are unique.
func (s *MemoryStore) CreateGroup(ctx context.Context, group *models.Group) error {
	s.mu.Lock()

	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	for _, g := range s.groups {
		if g.Code == group.Code {
			s.mu.Unlock()
			return fmt.Errorf("join code %s already in use", group.Code)
		}
	}
	cp := *group
	s.groups[group.ID] = &cp
	s.mu.Unlock()

	s.Emit(storage.ChangeEvent{Table: "groups", GroupID: group.ID, Op: storage.OpInsert})
	return nil
}

// GetGroup returns the group with the given ID.
func (s *MemoryStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

// GetGroupByCode returns the group with the given join code.
func (s *MemoryStore) GetGroupByCode(ctx context.Context, code string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, g := range s.groups {
		if g.Code == code {
			cp := *g
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

// ListGroupsByUser returns every group the user is a member of, newest first.
func (s *MemoryStore) ListGroupsByUser(ctx context.Context, userID string) ([]*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var groups []*models.Group
	for _, m := range s.members {
		if m.UserID != userID {
			continue
		}
		if g, ok := s.groups[m.GroupID]; ok {
			cp := *g
			groups = append(groups, &cp)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].CreatedAt > groups[j].CreatedAt })
	return groups, nil
}

// DeleteGroup removes a group together with its memberships.
func (s *MemoryStore) DeleteGroup(ctx context.Context, id string) error {
	s.mu.Lock()

	if _, ok := s.groups[id]; !ok {
		s.mu.Unlock()
		return storage.ErrNotFound
	}
	delete(s.groups, id)
	for mid, m := range s.members {
		if m.GroupID == id {
			delete(s.members, mid)
		}
	}
	s.mu.Unlock()

	s.Emit(storage.ChangeEvent{Table: "groups", GroupID: id, Op: storage.OpDelete})
	return nil
}

// AddMember stores a new membership. A user may join a group once.
func (s *MemoryStore) AddMember(ctx context.Context, member *models.Membership) error {
	s.mu.Lock()

	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.CreatedAt == 0 {
		member.CreatedAt = time.Now().Unix()
	}
	for _, m := range s.members {
		if m.GroupID == member.GroupID && m.UserID == member.UserID {
			s.mu.Unlock()
			return fmt.Errorf("user %s already in group %s", member.UserID, member.GroupID)
		}
	}
	cp := *member
	s.members[member.ID] = &cp
	s.mu.Unlock()

	s.Emit(storage.ChangeEvent{Table: "group_members", GroupID: member.GroupID, Op: storage.OpInsert})
	return nil
}

// GetMember returns one user's membership in one group.
func (s *MemoryStore) GetMember(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.members {
		if m.GroupID == groupID && m.UserID == userID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

// ListMembers returns all memberships of a group, oldest first.
func (s *MemoryStore) ListMembers(ctx context.Context, groupID string) ([]*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var members []*models.Membership
	for _, m := range s.members {
		if m.GroupID == groupID {
			cp := *m
			members = append(members, &cp)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].CreatedAt != members[j].CreatedAt {
			return members[i].CreatedAt < members[j].CreatedAt
		}
		return members[i].ID < members[j].ID
	})
	return members, nil
}

// ApplyDraw sets every listed membership's assigned_to and flags the group
// drawn, atomically under the store's lock. If anything is missing the
// store is left untouched.
func (s *MemoryStore) ApplyDraw(ctx context.Context, groupID string, assignedTo map[string]string) error {
	s.mu.Lock()

	g, ok := s.groups[groupID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	// Validate before mutating so a bad input cannot partially apply.
	for memberID := range assignedTo {
		m, ok := s.members[memberID]
		if !ok || m.GroupID != groupID {
			s.mu.Unlock()
			return fmt.Errorf("member %s: %w", memberID, storage.ErrNotFound)
		}
	}
	for memberID, userID := range assignedTo {
		s.members[memberID].AssignedTo = userID
	}
	g.IsDrawn = true
	s.mu.Unlock()

	s.Emit(storage.ChangeEvent{Table: "group_members", GroupID: groupID, Op: storage.OpUpdate})
	s.Emit(storage.ChangeEvent{Table: "groups", GroupID: groupID, Op: storage.OpUpdate})
	return nil
}
