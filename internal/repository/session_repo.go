package repository

import (
	"context"

	"commsdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionRepository persists issued token pairs. Sessions exist so that a
// password change can force-invalidate every device at once.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	DeleteByAccessToken(ctx context.Context, userID uuid.UUID, accessToken string) error
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	return GetDB(ctx, r.db).Create(session).Error
}

func (r *sessionRepository) DeleteByAccessToken(ctx context.Context, userID uuid.UUID, accessToken string) error {
	return GetDB(ctx, r.db).
		Where("user_id = ? AND access_token = ?", userID, accessToken).
		Delete(&model.Session{}).Error
}

func (r *sessionRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("user_id = ?", userID).Delete(&model.Session{}).Error
}
