package facade

import (
	"context"
	"strings"

	"go-group-relay/internal/domain"
	"go-group-relay/internal/infrastructure/hub"
	"go-group-relay/internal/infrastructure/logger"
	"go-group-relay/internal/port/inbound"
)

// GroupPublisher delivers a message to the members of a group.
type GroupPublisher interface {
	IsRunning() bool
	Publish(ctx context.Context, groupID string, message *hub.Message) *hub.DeliveryReport
}

// RoleApplicationService validates role assignments and notifies the group.
// Authorization and persisting the role belong to collaborators outside this
// service.
type RoleApplicationService struct {
	publisher GroupPublisher
	logger    logger.Logger
}

var _ inbound.RoleUseCase = (*RoleApplicationService)(nil)

func NewRoleApplicationService(publisher GroupPublisher, log logger.Logger) *RoleApplicationService {
	return &RoleApplicationService{
		publisher: publisher,
		logger:    log.WithField("service", "role"),
	}
}

func (s *RoleApplicationService) AssignRole(
	ctx context.Context,
	groupID string,
	assignment domain.RoleAssignment,
) (*domain.RoleAssignmentResult, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, domain.ValidationError("group_id is required").WithField("field", "group_id")
	}
	if err := assignment.Validate(); err != nil {
		return nil, err
	}
	if !s.publisher.IsRunning() {
		return nil, domain.UnavailableError("group relay is not running", hub.ErrHubNotRunning)
	}

	s.logger.Infof(
		"Admin %s assigns role '%s' to user '%s' in group '%s'",
		assignment.RequestedBy, assignment.Role, assignment.UserID, groupID,
	)

	report := s.publisher.Publish(ctx, groupID, hub.SystemMessage(groupID, assignment.Notice()))

	return &domain.RoleAssignmentResult{
		GroupID:   groupID,
		UserID:    assignment.UserID,
		Role:      assignment.Role,
		Notified:  report.Delivered,
		MessageID: report.MessageID,
	}, nil
}
