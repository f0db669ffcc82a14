package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pvidal/amigoinvisible/internal/draw"
	"github.com/pvidal/amigoinvisible/internal/joincode"
	"github.com/pvidal/amigoinvisible/internal/metrics"
	"github.com/pvidal/amigoinvisible/internal/models"
	"github.com/pvidal/amigoinvisible/internal/storage"
)

// codeAttempts bounds the retries when a freshly generated join code
// collides with an existing group.
const codeAttempts = 5

// GroupService implements group lifecycle, the draw and the reveal
// projection on top of an injected storage.Store.
type GroupService struct {
	store  storage.Store
	logger *slog.Logger

	// drawLocks serializes draws per group id so two concurrent draw
	// requests cannot interleave their member updates.
	mu        sync.Mutex
	drawLocks map[string]*sync.Mutex
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, logger *slog.Logger) *GroupService {
	return &GroupService{
		store:     store,
		logger:    logger,
		drawLocks: make(map[string]*sync.Mutex),
	}
}

func (s *GroupService) drawLock(groupID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.drawLocks[groupID]
	if !ok {
		l = &sync.Mutex{}
		s.drawLocks[groupID] = l
	}
	return l
}

// Create makes a new group owned by ownerID and enrolls the owner as its
// first member. The join code is generated here and re-rolled on collision.
func (s *GroupService) Create(ctx context.Context, ownerID, name string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyGroupName
	}

	owner, err := s.store.GetUserByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load owner: %w", err)
	}
	if owner == nil {
		return nil, ErrNotMember
	}

	var group *models.Group
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code := joincode.Generate()
		_, err := s.store.GetGroupByCode(ctx, code)
		if err == nil {
			continue // taken, roll again
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to check join code: %w", err)
		}

		group = &models.Group{
			Name:      name,
			Code:      code,
			CreatedBy: ownerID,
		}
		if err := s.store.CreateGroup(ctx, group); err != nil {
			return nil, fmt.Errorf("failed to create group: %w", err)
		}
		break
	}
	if group == nil {
		return nil, ErrCodeExhausted
	}

	member := &models.Membership{
		GroupID:   group.ID,
		UserID:    ownerID,
		UserEmail: owner.Email,
		UserName:  owner.DisplayName,
	}
	if err := s.store.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add owner membership: %w", err)
	}

	s.logger.Info("group created", "group_id", group.ID, "code", group.Code, "owner", ownerID)
	return group, nil
}

// Join enrolls userID in the group identified by code. Joining is refused
// once the group has been drawn.
func (s *GroupService) Join(ctx context.Context, userID, code string) (*models.Group, error) {
	code = joincode.Normalize(code)
	if code == "" {
		return nil, ErrEmptyJoinCode
	}

	group, err := s.store.GetGroupByCode(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up join code: %w", err)
	}

	if _, err := s.store.GetMember(ctx, group.ID, userID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	if group.IsDrawn {
		return nil, ErrAlreadyDrawn
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrNotMember
	}

	member := &models.Membership{
		GroupID:   group.ID,
		UserID:    userID,
		UserEmail: user.Email,
		UserName:  user.DisplayName,
	}
	if err := s.store.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	s.logger.Info("member joined", "group_id", group.ID, "user_id", userID)
	return group, nil
}

// ListForUser returns the groups the user belongs to.
func (s *GroupService) ListForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	groups, err := s.store.ListGroupsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// Get returns a group with its member list for a viewer who must be a
// member. Every returned membership has AssignedTo blanked: a viewer can
// only resolve their own edge, and only through RevealAssignment.
func (s *GroupService) Get(ctx context.Context, viewerID, groupID string) (*models.Group, []*models.Membership, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load group: %w", err)
	}

	if _, err := s.store.GetMember(ctx, groupID, viewerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrNotMember
		}
		return nil, nil, fmt.Errorf("failed to check membership: %w", err)
	}

	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list members: %w", err)
	}
	for _, m := range members {
		m.AssignedTo = ""
	}
	return group, members, nil
}

// PerformDraw computes and commits a fresh assignment for the group.
//
// Only the owner may draw; groups below the minimum size are refused
// before any write; redrawing an already-drawn group requires confirm.
// The whole persistence step is a single store transaction, and draws on
// the same group are serialized with a per-group mutex, so the group is
// never observable as drawn with a partial assignment set.
func (s *GroupService) PerformDraw(ctx context.Context, callerID, groupID string, confirm bool) (*models.Group, error) {
	lock := s.drawLock(groupID)
	lock.Lock()
	defer lock.Unlock()

	group, err := s.store.GetGroup(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}

	if group.CreatedBy != callerID {
		return nil, ErrNotOwner
	}
	if group.IsDrawn && !confirm {
		return nil, ErrNotConfirmed
	}

	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	assignments, err := draw.Draw(members)
	if err != nil {
		return nil, err
	}

	assignedTo := make(map[string]string, len(assignments))
	for _, a := range assignments {
		assignedTo[a.MemberID] = a.AssignedTo
	}

	if err := s.store.ApplyDraw(ctx, groupID, assignedTo); err != nil {
		metrics.DrawFailuresTotal.Inc()
		s.logger.Error("draw failed", "group_id", groupID, "error", err)
		return nil, fmt.Errorf("failed to apply draw: %w", err)
	}

	metrics.DrawsTotal.Inc()
	s.logger.Info("draw performed", "group_id", groupID, "members", len(members), "redraw", group.IsDrawn)
	group.IsDrawn = true
	return group, nil
}

// RevealAssignment returns the profile of the viewer's assigned member —
// and nothing else. The query is scoped to the viewer's own membership
// row; the full assignment map never leaves the service.
func (s *GroupService) RevealAssignment(ctx context.Context, viewerID, groupID string) (*models.User, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}

	member, err := s.store.GetMember(ctx, groupID, viewerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotMember
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}

	if !group.IsDrawn || member.AssignedTo == "" {
		return nil, ErrNotDrawn
	}

	target, err := s.store.GetUserByID(ctx, member.AssignedTo)
	if err != nil {
		return nil, fmt.Errorf("failed to load assigned user: %w", err)
	}
	if target == nil {
		// Profile gone; fall back to the join-time snapshot.
		tm, err := s.store.GetMember(ctx, groupID, member.AssignedTo)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve assignment: %w", err)
		}
		target = &models.User{ID: tm.UserID, Email: tm.UserEmail, DisplayName: tm.UserName}
	}
	return target, nil
}

// Delete removes a group and all its memberships. Owner only.
func (s *GroupService) Delete(ctx context.Context, callerID, groupID string) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrGroupNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load group: %w", err)
	}

	if group.CreatedBy != callerID {
		return ErrNotOwner
	}

	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	s.logger.Info("group deleted", "group_id", groupID, "owner", callerID)
	return nil
}
