package repository

import (
	"context"

	"commsdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContentFilter narrows content listings.
type ContentFilter struct {
	Status     string
	CategoryID *uuid.UUID
	AuthorID   *uuid.UUID
	Search     string
	Offset     int
	Limit      int
}

// ContentRepository is the data access surface for content records and their
// append-only approval ledger.
type ContentRepository interface {
	Create(ctx context.Context, content *model.Content) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Content, error)
	// GetForUpdate loads the content row under a FOR UPDATE lock. Transition
	// checks must use this inside a transaction so two concurrent calls on
	// the same entity serialize instead of racing the read-check-write.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Content, error)
	List(ctx context.Context, filter ContentFilter) ([]model.Content, int64, error)
	Update(ctx context.Context, content *model.Content) error
	Delete(ctx context.Context, id uuid.UUID) error

	AppendApproval(ctx context.Context, approval *model.ContentApproval) error
	ApprovalHistory(ctx context.Context, contentID uuid.UUID) ([]model.ContentApproval, error)
	// ApprovedRoles returns the distinct approver roles recorded with
	// action=approve — the source of truth for the publish gate.
	ApprovedRoles(ctx context.Context, contentID uuid.UUID) ([]string, error)
}

type contentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) Create(ctx context.Context, content *model.Content) error {
	return GetDB(ctx, r.db).Create(content).Error
}

func (r *contentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Content, error) {
	var content model.Content
	err := GetDB(ctx, r.db).
		Preload("Category").
		Preload("Author").
		Preload("Author.Role").
		First(&content, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &content, nil
}

func (r *contentRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Content, error) {
	var content model.Content
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&content, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &content, nil
}

func (r *contentRepository) List(ctx context.Context, filter ContentFilter) ([]model.Content, int64, error) {
	db := GetDB(ctx, r.db)

	query := db.Model(&model.Content{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.AuthorID != nil {
		query = query.Where("author_id = ?", *filter.AuthorID)
	}
	if filter.Search != "" {
		term := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR excerpt ILIKE ? OR body ILIKE ?", term, term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var contents []model.Content
	err := query.
		Preload("Category").
		Preload("Author").
		Order("created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&contents).Error
	if err != nil {
		return nil, 0, err
	}
	return contents, total, nil
}

func (r *contentRepository) Update(ctx context.Context, content *model.Content) error {
	return GetDB(ctx, r.db).Save(content).Error
}

func (r *contentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Content{}).Error
}

func (r *contentRepository) AppendApproval(ctx context.Context, approval *model.ContentApproval) error {
	return GetDB(ctx, r.db).Create(approval).Error
}

func (r *contentRepository) ApprovalHistory(ctx context.Context, contentID uuid.UUID) ([]model.ContentApproval, error) {
	var history []model.ContentApproval
	err := GetDB(ctx, r.db).
		Preload("Approver").
		Where("content_id = ?", contentID).
		Order("created_at DESC").
		Find(&history).Error
	if err != nil {
		return nil, err
	}
	return history, nil
}

func (r *contentRepository) ApprovedRoles(ctx context.Context, contentID uuid.UUID) ([]string, error) {
	var roles []string
	err := GetDB(ctx, r.db).Model(&model.ContentApproval{}).
		Distinct("approver_role").
		Where("content_id = ? AND action = ?", contentID, model.ApprovalActionApprove).
		Pluck("approver_role", &roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}
