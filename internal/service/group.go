package service

import (
	"context"
	"fmt"

	"netdrift/internal/domain"
	"netdrift/internal/repository"
)

// GroupService implements group lifecycle and the ownership resolver.
type GroupService struct {
	groups  repository.Groups
	intents repository.Intents
}

// NewGroupService wires a group service against its repositories.
func NewGroupService(groups repository.Groups, intents repository.Intents) *GroupService {
	return &GroupService{groups: groups, intents: intents}
}

// CreateGroup validates the referenced members and materializes the group.
//
// Validation walks the requested direct intents first, then the inherited
// groups with their full closures, accumulating one flat set of managed
// intent ids. Any intent reached twice is a duplicate ownership conflict,
// regardless of which paths reach it.
func (s *GroupService) CreateGroup(ctx context.Context, req domain.IntentGroupCreate) (*domain.IntentGroup, error) {
	existing, err := s.groups.GetByLabel(ctx, req.Label)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrGroupAlreadyExists()
	}

	group := domain.NewIntentGroup(req.Label, req.Hostname)
	group.Description = req.Description

	managed := map[string]bool{}

	for _, intentID := range req.Intents {
		intent, err := s.intents.Get(ctx, intentID)
		if err != nil {
			return nil, err
		}
		if intent == nil || !intent.IsPartial() {
			return nil, domain.ErrPartialIntentNotFound(intentID)
		}
		if err := checkHostnameScope(group.Hostname, intent.Hostname); err != nil {
			return nil, err
		}
		if managed[intent.ID] {
			return nil, domain.ErrDuplicateOwnership()
		}
		managed[intent.ID] = true
		group.Intents = append(group.Intents, *intent)
	}

	for _, groupID := range req.Groups {
		sub, err := s.groups.Get(ctx, groupID)
		if err != nil {
			return nil, err
		}
		if sub == nil {
			return nil, domain.ErrGroupNotFound(groupID)
		}
		if err := checkHostnameScope(group.Hostname, sub.Hostname); err != nil {
			return nil, err
		}
		for _, ownedID := range sub.OwnedIntentIDs() {
			if managed[ownedID] {
				return nil, domain.ErrDuplicateOwnership()
			}
			managed[ownedID] = true
		}
		group.Groups = append(group.Groups, *sub)
	}

	return s.groups.Create(ctx, group)
}

// checkHostnameScope validates a member's hostname against its group's. A
// common group may only own common members; a hostname-scoped group may own
// common members and members of the same hostname.
func checkHostnameScope(groupHostname, memberHostname string) error {
	if memberHostname == "" {
		return nil
	}
	if groupHostname == "" {
		return domain.ErrHostnameScopeViolation()
	}
	if groupHostname != memberHostname {
		return domain.ErrHostnameMismatch()
	}
	return nil
}

// UpdateGroup is not supported; groups are immutable snapshots, replace the
// group to change its membership.
func (s *GroupService) UpdateGroup(ctx context.Context, id string) (*domain.IntentGroup, error) {
	return nil, domain.ErrNotImplemented()
}

// GetGroup returns a group by id.
func (s *GroupService) GetGroup(ctx context.Context, id string) (*domain.IntentGroup, error) {
	group, err := s.groups.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, domain.ErrGroupNotFound(id)
	}
	return group, nil
}

// ListGroups lists groups.
func (s *GroupService) ListGroups(ctx context.Context, skip, limit int) ([]domain.IntentGroup, error) {
	return s.groups.GetMulti(ctx, skip, limit)
}

// DeleteGroup removes a group. Member intents are untouched.
func (s *GroupService) DeleteGroup(ctx context.Context, id string) error {
	group, err := s.groups.Get(ctx, id)
	if err != nil {
		return err
	}
	if group == nil {
		return domain.ErrGroupNotFound(id)
	}
	if err := s.groups.Delete(ctx, group.ID); err != nil {
		return fmt.Errorf("failed to delete group %s: %w", id, err)
	}
	return nil
}
