package service

import (
	"context"
	"fmt"
	"log/slog"

	"splitledger/internal/models"
	"splitledger/internal/storage"
)

// GroupService manages groups: named, add-only sets of users that own
// expenses.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a new group with its initial members.
func (s *GroupService) CreateGroup(ctx context.Context, name string, memberUserIDs []string) (*models.Group, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: group name required", ErrInvalidInput)
	}

	group := &models.Group{
		Name:    name,
		Members: memberUserIDs,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, err
	}
	slog.Info("Group created", "group_id", group.ID)
	return group, nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	return s.store.GetGroup(ctx, id)
}

// AddMembers adds users to an existing group.
func (s *GroupService) AddMembers(ctx context.Context, groupID string, userIDs []string) (*models.Group, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if err := s.store.AddGroupMembers(ctx, groupID, userIDs); err != nil {
		return nil, err
	}
	return s.store.GetGroup(ctx, groupID)
}
