package inbound

import (
	"context"

	"go-group-relay/internal/domain"
)

// RoleUseCase assigns group roles and tells the group about it.
type RoleUseCase interface {
	AssignRole(ctx context.Context, groupID string, assignment domain.RoleAssignment) (*domain.RoleAssignmentResult, error)
}
