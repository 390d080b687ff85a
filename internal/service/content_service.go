package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"commsdesk/internal/model"
	"commsdesk/internal/repository"
	"commsdesk/pkg/apperr"
	"commsdesk/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateContentRequest carries a new draft.
type CreateContentRequest struct {
	Title         string `json:"title" binding:"required"`
	Excerpt       string `json:"excerpt"`
	Body          string `json:"body" binding:"required"`
	CategoryID    string `json:"category_id" binding:"required"`
	FeaturedImage string `json:"featured_image"`
}

// UpdateContentRequest carries partial edits; blank fields are unchanged.
type UpdateContentRequest struct {
	Title         string `json:"title"`
	Excerpt       string `json:"excerpt"`
	Body          string `json:"body"`
	CategoryID    string `json:"category_id"`
	FeaturedImage string `json:"featured_image"`
}

// ListContentsQuery narrows a content listing.
type ListContentsQuery struct {
	Status     string
	CategoryID string
	AuthorID   string
	Search     string
}

// ContentService implements the draft -> pending -> approved -> published
// workflow. Every transition runs in a transaction with the content row
// locked, and writes one row to the append-only approval ledger.
type ContentService interface {
	Create(ctx context.Context, actor *model.User, req CreateContentRequest, meta RequestMeta) (*model.Content, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Content, error)
	List(ctx context.Context, q ListContentsQuery, p pagination.Params) ([]model.Content, *pagination.Meta, error)
	Update(ctx context.Context, actor *model.User, id uuid.UUID, req UpdateContentRequest, meta RequestMeta) (*model.Content, error)
	Delete(ctx context.Context, actor *model.User, id uuid.UUID, meta RequestMeta) error

	Submit(ctx context.Context, actor *model.User, id uuid.UUID, notes string, meta RequestMeta) (*model.Content, error)
	Approve(ctx context.Context, actor *model.User, id uuid.UUID, notes string, meta RequestMeta) (*model.Content, error)
	Publish(ctx context.Context, actor *model.User, id uuid.UUID, notes string, meta RequestMeta) (*model.Content, error)
	Reject(ctx context.Context, actor *model.User, id uuid.UUID, notes string, meta RequestMeta) (*model.Content, error)

	ApprovalHistory(ctx context.Context, id uuid.UUID) ([]model.ContentApproval, error)
}

type contentService struct {
	contents   repository.ContentRepository
	categories repository.CategoryRepository
	txm        repository.TransactionManager
	audit      AuditService
}

func NewContentService(
	contents repository.ContentRepository,
	categories repository.CategoryRepository,
	txm repository.TransactionManager,
	audit AuditService,
) ContentService {
	return &contentService{
		contents:   contents,
		categories: categories,
		txm:        txm,
		audit:      audit,
	}
}

var slugCleanRe = regexp.MustCompile(`[^a-z0-9]+`)

// makeSlug derives a URL slug from the title with a timestamp suffix so two
// contents with the same title never collide.
func makeSlug(title string) string {
	slug := strings.ToLower(title)
	slug = slugCleanRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "content"
	}
	return fmt.Sprintf("%s-%d", slug, time.Now().UnixNano())
}

func (s *contentService) Create(ctx context.Context, actor *model.User, req CreateContentRequest, meta RequestMeta) (*model.Content, error) {
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "Invalid category id")
	}
	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.Validation, "Category not found")
		}
		return nil, apperr.Wrap(apperr.Store, "failed to load category", err)
	}

	content := &model.Content{
		Title:      strings.TrimSpace(req.Title),
		Slug:       makeSlug(req.Title),
		Excerpt:    req.Excerpt,
		Body:       req.Body,
		CategoryID: categoryID,
		AuthorID:   actor.ID,
		Status:     model.ContentStatusDraft,
	}
	if req.FeaturedImage != "" {
		img := req.FeaturedImage
		content.FeaturedImage = &img
	}

	if err := s.contents.Create(ctx, content); err != nil {
		return nil, apperr.Wrap(apperr.Store, "failed to create content", err)
	}

	s.audit.Record(ctx, &actor.ID, model.ActionContentCreated, model.ModuleContent, meta,
		map[string]interface{}{"content_id": content.ID.String(), "title": content.Title})

	return s.Get(ctx, content.ID)
}

func (s *contentService) Get(ctx context.Context, id uuid.UUID) (*model.Content, error) {
	content, err := s.contents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Content not found")
		}
		return nil, apperr.Wrap(apperr.Store, "failed to load content", err)
	}
	return content, nil
}

func (s *contentService) List(ctx context.Context, q ListContentsQuery, p pagination.Params) ([]model.Content, *pagination.Meta, error) {
	filter := repository.ContentFilter{
		Status: q.Status,
		Search: q.Search,
		Offset: p.Offset,
		Limit:  p.PerPage,
	}
	if q.CategoryID != "" {
		id, err := uuid.Parse(q.CategoryID)
		if err != nil {
			return nil, nil, apperr.New(apperr.Validation, "Invalid category id")
		}
		filter.CategoryID = &id
	}
	if q.AuthorID != "" {
		id, err := uuid.Parse(q.AuthorID)
		if err != nil {
			return nil, nil, apperr.New(apperr.Validation, "Invalid author id")
		}
		filter.AuthorID = &id
	}

	contents, total, err := s.contents.List(ctx, filter)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.Store, "failed to list contents", err)
	}
	meta := p.MetaFor(total)
	return contents, &meta, nil
}

func (s *contentService) Update(ctx context.Context, actor *model.User, id uuid.UUID, req UpdateContentRequest, meta RequestMeta) (*model.Content, error) {
	content, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if content.AuthorID != actor.ID && actor.Role.Name == model.RoleUser {
		return nil, apperr.New(apperr.Forbidden, "You can only edit your own content")
	}

	if req.Title != "" && req.Title != content.Title {
		content.Title = strings.TrimSpace(req.Title)
		content.Slug = makeSlug(req.Title)
	}
	if req.Excerpt != "" {
		content.Excerpt = req.Excerpt
	}
	if req.Body != "" {
		content.Body = req.Body
	}
	if req.CategoryID != "" {
		categoryID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return nil, apperr.New(apperr.Validation, "Invalid category id")
		}
		if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.New(apperr.Validation, "Category not found")
			}
			return nil, apperr.Wrap(apperr.Store, "failed to load category", err)
		}
		content.CategoryID = categoryID
	}
	if req.FeaturedImage != "" {
		img := req.FeaturedImage
		content.FeaturedImage = &img
	}

	if err := s.contents.Update(ctx, content); err != nil {
		return nil, apperr.Wrap(apperr.Store, "failed to update content", err)
	}

	s.audit.Record(ctx, &actor.ID, model.ActionContentUpdated, model.ModuleContent, meta,
		map[string]interface{}{"content_id": content.ID.String()})

	return s.Get(ctx, content.ID)
}

func (s *contentService) Delete(ctx context.Context, actor *model.User, id uuid.UUID, meta RequestMeta) error {
	content, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	// Deleting someone else's content is reserved for the section head.
	if content.AuthorID != actor.ID && actor.Role.Name != model.RoleKasubbag {
		return apperr.New(apperr.Forbidden, "You can only delete your own content")
	}

	if err := s.contents.Delete(ctx, id); err != nil {
		return apperr.Wrap(apperr.Store, "failed to delete content", err)
	}

	s.audit.Record(ctx, &actor.ID, model.ActionContentDeleted, model.ModuleContent, meta,
		map[string]interface{}{"content_id": id.String(), "title": content.Title})
	return nil
}

// Submit moves a draft into the review queue. Only the author may submit.
func (s *contentService) Submit(ctx context.Context, actor *model.User, id uuid.UUID, notes string, meta RequestMeta) (*model.Content, error) {
	err := s.transition(ctx, actor, id, model.ApprovalActionSubmit, notes, func(content *model.Content) error {
		if content.AuthorID != actor.ID {
			return apperr.New(apperr.Forbidden, "Only the author can submit content for review")
		}
		if content.Status != model.ContentStatusDraft {
			return apperr.New(apperr.InvalidTransition,
				fmt.Sprintf("Content cannot be submitted from status '%s'", content.Status))
		}
		content.Status = model.ContentStatusPending
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &actor.ID, model.ActionContentSubmitted, model.ModuleContent, meta,
		map[string]interface{}{"content_id": id.String()})
	return s.Get(ctx, id)
}

// Approve records a sign-off on pending content. Repeated approvals by the
// same role are allowed and appended to the ledger; the status stays
// "approved" once reached.
func (s *contentService) Approve(ctx context.Context, actor *model.User, id uuid.UUID, notes string, meta RequestMeta) (*model.Content, error) {
	err := s.transition(ctx, actor, id, model.ApprovalActionApprove, notes, func(content *model.Content) error {
		if content.Status != model.ContentStatusPending && content.Status != model.ContentStatusApproved {
			return apperr.New(apperr.InvalidTransition,
				fmt.Sprintf("Content cannot be approved from status '%s'", content.Status))
		}
		content.Status = model.ContentStatusApproved
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &actor.ID, model.ActionContentApproved, model.ModuleContent, meta,
		map[string]interface{}{"content_id": id.String(), "role": actor.Role.Name})
	return s.Get(ctx, id)
}

// Publish makes approved content public. It requires sign-offs from every
// role in the publish gate; the check reads the ledger inside the same
// transaction that updates the status, under the row lock.
func (s *contentService) Publish(ctx context.Context, actor *model.User, id uuid.UUID, notes string, meta RequestMeta) (*model.Content, error) {
	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		content, err := s.contents.GetForUpdate(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.NotFound, "Content not found")
			}
			return apperr.Wrap(apperr.Store, "failed to lock content", err)
		}

		if content.Status != model.ContentStatusApproved {
			return apperr.New(apperr.InvalidTransition,
				fmt.Sprintf("Content cannot be published from status '%s'", content.Status))
		}

		approvedRoles, err := s.contents.ApprovedRoles(txCtx, id)
		if err != nil {
			return apperr.Wrap(apperr.Store, "failed to read approval ledger", err)
		}
		if missing := missingGateRoles(approvedRoles); len(missing) > 0 {
			return apperr.New(apperr.IncompleteApprovalChain,
				fmt.Sprintf("Cannot publish: missing approval from %s", strings.Join(missing, ", ")))
		}

		now := time.Now()
		content.Status = model.ContentStatusPublished
		content.PublishedAt = &now
		if err := s.contents.Update(txCtx, content); err != nil {
			return apperr.Wrap(apperr.Store, "failed to update content", err)
		}

		return s.appendLedger(txCtx, actor, id, model.ApprovalActionPublish, notes)
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &actor.ID, model.ActionContentPublished, model.ModuleContent, meta,
		map[string]interface{}{"content_id": id.String()})
	return s.Get(ctx, id)
}

// Reject sends pending or approved content back with mandatory notes.
func (s *contentService) Reject(ctx context.Context, actor *model.User, id uuid.UUID, notes string, meta RequestMeta) (*model.Content, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, apperr.New(apperr.Validation, "Rejection notes are required")
	}
	err := s.transition(ctx, actor, id, model.ApprovalActionReject, notes, func(content *model.Content) error {
		if content.Status != model.ContentStatusPending && content.Status != model.ContentStatusApproved {
			return apperr.New(apperr.InvalidTransition,
				fmt.Sprintf("Content cannot be rejected from status '%s'", content.Status))
		}
		content.Status = model.ContentStatusRejected
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &actor.ID, model.ActionContentRejected, model.ModuleContent, meta,
		map[string]interface{}{"content_id": id.String(), "notes": notes})
	return s.Get(ctx, id)
}

func (s *contentService) ApprovalHistory(ctx context.Context, id uuid.UUID) ([]model.ContentApproval, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	history, err := s.contents.ApprovalHistory(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.Store, "failed to load approval history", err)
	}
	return history, nil
}

// transition runs a locked read-check-write cycle and appends the ledger row
// in the same transaction.
func (s *contentService) transition(ctx context.Context, actor *model.User, id uuid.UUID, action, notes string, mutate func(*model.Content) error) error {
	return s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		content, err := s.contents.GetForUpdate(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.NotFound, "Content not found")
			}
			return apperr.Wrap(apperr.Store, "failed to lock content", err)
		}

		if err := mutate(content); err != nil {
			return err
		}

		if err := s.contents.Update(txCtx, content); err != nil {
			return apperr.Wrap(apperr.Store, "failed to update content", err)
		}

		return s.appendLedger(txCtx, actor, id, action, notes)
	})
}

func (s *contentService) appendLedger(ctx context.Context, actor *model.User, contentID uuid.UUID, action, notes string) error {
	entry := &model.ContentApproval{
		ContentID:    contentID,
		ApproverID:   actor.ID,
		ApproverRole: actor.Role.Name,
		Action:       action,
		Notes:        notes,
	}
	if err := s.contents.AppendApproval(ctx, entry); err != nil {
		return apperr.Wrap(apperr.Store, "failed to append approval record", err)
	}
	return nil
}

// missingGateRoles returns the publish-gate roles absent from the distinct
// approver role list.
func missingGateRoles(approvedRoles []string) []string {
	have := make(map[string]bool, len(approvedRoles))
	for _, r := range approvedRoles {
		have[r] = true
	}
	var missing []string
	for _, required := range model.PublishGateRoles {
		if !have[required] {
			missing = append(missing, required)
		}
	}
	return missing
}
