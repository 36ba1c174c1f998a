package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agencyloop/agencyloop-backend/internal/logger"
	"github.com/agencyloop/agencyloop-backend/internal/repos"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

const defaultMessagePageSize = 50

type MessageService interface {
	PostMessage(ctx context.Context, orgID, senderID uuid.UUID, body string) (*types.Message, error)
	ListMessages(ctx context.Context, orgID, viewerID uuid.UUID, limit int) ([]*types.Message, error)
	UnreadCount(ctx context.Context, orgID, userID uuid.UUID) (int64, error)
}

type messageService struct {
	db             *gorm.DB
	log            *logger.Logger
	messageRepo    repos.MessageRepo
	membershipRepo repos.OrgMembershipRepo
	unreadService  UnreadService
}

func NewMessageService(
	db *gorm.DB,
	log *logger.Logger,
	messageRepo repos.MessageRepo,
	membershipRepo repos.OrgMembershipRepo,
	unreadService UnreadService,
) MessageService {
	serviceLog := log.With("service", "MessageService")
	return &messageService{
		db:             db,
		log:            serviceLog,
		messageRepo:    messageRepo,
		membershipRepo: membershipRepo,
		unreadService:  unreadService,
	}
}

func (ms *messageService) PostMessage(ctx context.Context, orgID, senderID uuid.UUID, body string) (*types.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, validationErrorf("a message body is required")
	}
	msg := &types.Message{
		ID:       uuid.New(),
		OrgID:    orgID,
		SenderID: senderID,
		Body:     body,
	}
	if _, err := ms.messageRepo.Create(ctx, nil, []*types.Message{msg}); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	// Unread badges are best effort.
	members, err := ms.membershipRepo.GetByOrgID(ctx, nil, orgID)
	if err != nil {
		ms.log.Warn("Failed to load members for unread counters", "error", err)
		return msg, nil
	}
	memberIDs := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.UserID)
	}
	if err := ms.unreadService.IncrementForOthers(ctx, orgID, senderID, memberIDs); err != nil {
		ms.log.Warn("Failed to bump unread counters", "error", err)
	}
	return msg, nil
}

// ListMessages returns the most recent messages and clears the
// viewer's unread badge.
func (ms *messageService) ListMessages(ctx context.Context, orgID, viewerID uuid.UUID, limit int) ([]*types.Message, error) {
	if limit <= 0 {
		limit = defaultMessagePageSize
	}
	messages, err := ms.messageRepo.GetByOrgID(ctx, nil, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if err := ms.unreadService.Reset(ctx, orgID, viewerID); err != nil {
		ms.log.Warn("Failed to reset unread counter", "error", err)
	}
	return messages, nil
}

func (ms *messageService) UnreadCount(ctx context.Context, orgID, userID uuid.UUID) (int64, error) {
	return ms.unreadService.Count(ctx, orgID, userID)
}
