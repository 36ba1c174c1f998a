package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/agencyloop/agencyloop-backend/internal/logger"
)

// UnreadService tracks per-member unread message counts. Counters live
// in Redis only; losing them degrades to "no badge", never to data loss.
type UnreadService interface {
	IncrementForOthers(ctx context.Context, orgID, senderID uuid.UUID, memberIDs []uuid.UUID) error
	Count(ctx context.Context, orgID, userID uuid.UUID) (int64, error)
	Reset(ctx context.Context, orgID, userID uuid.UUID) error
}

type unreadService struct {
	log *logger.Logger
	rdb *redis.Client
}

func NewUnreadService(log *logger.Logger, rdb *redis.Client) UnreadService {
	serviceLog := log.With("service", "UnreadService")
	return &unreadService{log: serviceLog, rdb: rdb}
}

func unreadKey(orgID, userID uuid.UUID) string {
	return fmt.Sprintf("unread:%s:%s", orgID, userID)
}

func (us *unreadService) IncrementForOthers(ctx context.Context, orgID, senderID uuid.UUID, memberIDs []uuid.UUID) error {
	if us.rdb == nil {
		return nil
	}
	pipe := us.rdb.Pipeline()
	for _, id := range memberIDs {
		if id == senderID {
			continue
		}
		pipe.Incr(ctx, unreadKey(orgID, id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to bump unread counters: %w", err)
	}
	return nil
}

func (us *unreadService) Count(ctx context.Context, orgID, userID uuid.UUID) (int64, error) {
	if us.rdb == nil {
		return 0, nil
	}
	n, err := us.rdb.Get(ctx, unreadKey(orgID, userID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read unread counter: %w", err)
	}
	return n, nil
}

func (us *unreadService) Reset(ctx context.Context, orgID, userID uuid.UUID) error {
	if us.rdb == nil {
		return nil
	}
	if err := us.rdb.Del(ctx, unreadKey(orgID, userID)).Err(); err != nil {
		return fmt.Errorf("failed to reset unread counter: %w", err)
	}
	return nil
}
