package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"commsdesk/internal/model"
	"commsdesk/internal/repository"
	"commsdesk/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxCooperationDocBytes caps the decoded attachment size at 5 MiB.
const maxCooperationDocBytes = 5 * 1024 * 1024

// Roles allowed to reject a cooperation and to read others' applications.
var cooperationStaffRoles = []string{model.RoleStaff, model.RoleKasubbag}

// CreateCooperationRequest carries a partnership application. Document is
// base64-encoded file content.
type CreateCooperationRequest struct {
	InstitutionName string `json:"institution_name" binding:"required"`
	ContactName     string `json:"contact_name" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Phone           string `json:"phone" binding:"required"`
	Purpose         string `json:"purpose" binding:"required"`
	EventDate       string `json:"event_date" binding:"required"` // YYYY-MM-DD
	DocumentName    string `json:"document_name" binding:"required"`
	DocumentMime    string `json:"document_mime"`
	Document        string `json:"document" binding:"required"`
}

// CooperationDocument is the downloadable attachment payload.
type CooperationDocument struct {
	Name string
	Mime string
	Data []byte
}

// CooperationService implements partnership intake and its strictly
// monotonic pending -> verified -> approved workflow.
type CooperationService interface {
	Create(ctx context.Context, actor *model.User, req CreateCooperationRequest, meta RequestMeta) (*model.Cooperation, error)
	Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Cooperation, error)
	List(ctx context.Context, actor *model.User, status string) ([]model.Cooperation, error)
	Document(ctx context.Context, actor *model.User, id uuid.UUID) (*CooperationDocument, error)

	Verify(ctx context.Context, actor *model.User, id uuid.UUID, meta RequestMeta) (*model.Cooperation, error)
	Approve(ctx context.Context, actor *model.User, id uuid.UUID, meta RequestMeta) (*model.Cooperation, error)
	Reject(ctx context.Context, actor *model.User, id uuid.UUID, meta RequestMeta) (*model.Cooperation, error)
}

type cooperationService struct {
	coops repository.CooperationRepository
	txm   repository.TransactionManager
	audit AuditService
}

func NewCooperationService(
	coops repository.CooperationRepository,
	txm repository.TransactionManager,
	audit AuditService,
) CooperationService {
	return &cooperationService{coops: coops, txm: txm, audit: audit}
}

func isCooperationStaff(user *model.User) bool {
	for _, role := range cooperationStaffRoles {
		if user.Role.Name == role {
			return true
		}
	}
	return false
}

func (s *cooperationService) Create(ctx context.Context, actor *model.User, req CreateCooperationRequest, meta RequestMeta) (*model.Cooperation, error) {
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}

	eventDate, err := time.Parse("2006-01-02", req.EventDate)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "Event date must be in YYYY-MM-DD format")
	}

	data, err := base64.StdEncoding.DecodeString(req.Document)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "Document must be valid base64")
	}
	if len(data) == 0 {
		return nil, apperr.New(apperr.Validation, "Document must not be empty")
	}
	if len(data) > maxCooperationDocBytes {
		return nil, apperr.New(apperr.Validation, "Document exceeds the 5 MB size limit")
	}

	coop := &model.Cooperation{
		InstitutionName: strings.TrimSpace(req.InstitutionName),
		ContactName:     strings.TrimSpace(req.ContactName),
		Email:           req.Email,
		Phone:           req.Phone,
		Purpose:         req.Purpose,
		EventDate:       eventDate,
		DocumentName:    req.DocumentName,
		DocumentMime:    req.DocumentMime,
		DocumentData:    data,
		Status:          model.CoopStatusPending,
		CreatedBy:       actor.ID,
	}

	if err := s.coops.Create(ctx, coop); err != nil {
		return nil, apperr.Wrap(apperr.Store, "failed to create cooperation", err)
	}

	s.audit.Record(ctx, &actor.ID, model.ActionCoopCreated, model.ModuleCooperation, meta,
		map[string]interface{}{"cooperation_id": coop.ID.String(), "institution": coop.InstitutionName})

	return s.coops.GetByID(ctx, coop.ID)
}

// Get enforces visibility: regular users see only their own applications.
func (s *cooperationService) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Cooperation, error) {
	coop, err := s.coops.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Cooperation not found")
		}
		return nil, apperr.Wrap(apperr.Store, "failed to load cooperation", err)
	}
	if coop.CreatedBy != actor.ID && !isCooperationStaff(actor) {
		return nil, apperr.New(apperr.Forbidden, "You do not have access to this cooperation")
	}
	return coop, nil
}

func (s *cooperationService) List(ctx context.Context, actor *model.User, status string) ([]model.Cooperation, error) {
	filter := repository.CooperationFilter{Status: status}
	if !isCooperationStaff(actor) {
		id := actor.ID
		filter.CreatedBy = &id
	}
	coops, err := s.coops.List(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(apperr.Store, "failed to list cooperations", err)
	}
	return coops, nil
}

// Document returns the attachment, creator-or-staff only.
func (s *cooperationService) Document(ctx context.Context, actor *model.User, id uuid.UUID) (*CooperationDocument, error) {
	coop, err := s.coops.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Cooperation not found")
		}
		return nil, apperr.Wrap(apperr.Store, "failed to load document", err)
	}
	if coop.CreatedBy != actor.ID && !isCooperationStaff(actor) {
		return nil, apperr.New(apperr.Forbidden, "You do not have access to this document")
	}
	return &CooperationDocument{
		Name: coop.DocumentName,
		Mime: coop.DocumentMime,
		Data: coop.DocumentData,
	}, nil
}

func (s *cooperationService) Verify(ctx context.Context, actor *model.User, id uuid.UUID, meta RequestMeta) (*model.Cooperation, error) {
	coop, err := s.setStatus(ctx, id, model.CoopStatusVerified, []string{model.CoopStatusPending})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &actor.ID, model.ActionCoopVerified, model.ModuleCooperation, meta,
		map[string]interface{}{"cooperation_id": id.String()})
	return coop, nil
}

func (s *cooperationService) Approve(ctx context.Context, actor *model.User, id uuid.UUID, meta RequestMeta) (*model.Cooperation, error) {
	coop, err := s.setStatus(ctx, id, model.CoopStatusApproved, []string{model.CoopStatusVerified})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &actor.ID, model.ActionCoopApproved, model.ModuleCooperation, meta,
		map[string]interface{}{"cooperation_id": id.String()})
	return coop, nil
}

// Reject is a role-gated action, not a permission-gated one: the route guard
// allows the Jashumas roles only, and the service trusts that guard.
func (s *cooperationService) Reject(ctx context.Context, actor *model.User, id uuid.UUID, meta RequestMeta) (*model.Cooperation, error) {
	if !isCooperationStaff(actor) {
		return nil, apperr.New(apperr.Forbidden, "You do not have permission to reject cooperations")
	}
	coop, err := s.setStatus(ctx, id, model.CoopStatusRejected,
		[]string{model.CoopStatusPending, model.CoopStatusVerified})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &actor.ID, model.ActionCoopRejected, model.ModuleCooperation, meta,
		map[string]interface{}{"cooperation_id": id.String()})
	return coop, nil
}

// setStatus performs a locked transition with an allowed-from set. Approved
// and rejected are terminal; nothing transitions out of them.
func (s *cooperationService) setStatus(ctx context.Context, id uuid.UUID, to string, allowedFrom []string) (*model.Cooperation, error) {
	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		coop, err := s.coops.GetForUpdate(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.NotFound, "Cooperation not found")
			}
			return apperr.Wrap(apperr.Store, "failed to lock cooperation", err)
		}

		ok := false
		for _, from := range allowedFrom {
			if coop.Status == from {
				ok = true
				break
			}
		}
		if !ok {
			return apperr.New(apperr.InvalidTransition,
				fmt.Sprintf("Cooperation cannot move from '%s' to '%s'", coop.Status, to))
		}

		return s.coops.UpdateStatus(txCtx, id, to)
	})
	if err != nil {
		return nil, err
	}

	coop, err := s.coops.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.Store, "failed to reload cooperation", err)
	}
	return coop, nil
}
