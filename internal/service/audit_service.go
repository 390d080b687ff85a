package service

import (
	"context"
	"encoding/json"
	"log"

	"commsdesk/internal/model"
	"commsdesk/internal/repository"
	"commsdesk/pkg/pagination"

	"github.com/google/uuid"
)

// RequestMeta carries the caller's network identity into the audit trail.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// AuditService records and lists activity trail entries. Recording is
// best-effort: a failed insert is logged and swallowed so the audit trail
// never breaks the operation it documents.
type AuditService interface {
	Record(ctx context.Context, userID *uuid.UUID, action, module string, meta RequestMeta, details map[string]interface{})
	List(ctx context.Context, p pagination.Params) ([]model.AuditLog, *pagination.Meta, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) Record(ctx context.Context, userID *uuid.UUID, action, module string, meta RequestMeta, details map[string]interface{}) {
	var payload string
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			log.Printf("audit: failed to marshal details for %s: %v", action, err)
		} else {
			payload = string(b)
		}
	}

	entry := &model.AuditLog{
		UserID:    userID,
		Action:    action,
		Module:    module,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
		Details:   payload,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to record %s/%s: %v", module, action, err)
	}
}

func (s *auditService) List(ctx context.Context, p pagination.Params) ([]model.AuditLog, *pagination.Meta, error) {
	logs, total, err := s.repo.List(ctx, p.Offset, p.PerPage)
	if err != nil {
		return nil, nil, err
	}
	meta := p.MetaFor(total)
	return logs, &meta, nil
}
