package repository

import (
	"context"

	"commsdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CooperationFilter narrows cooperation listings.
type CooperationFilter struct {
	CreatedBy *uuid.UUID
	Status    string
}

// CooperationRepository is the data access surface for partnership
// applications and their attached documents.
type CooperationRepository interface {
	Create(ctx context.Context, coop *model.Cooperation) error
	// GetByID omits the document payload; use GetDocument for the blob.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Cooperation, error)
	// GetForUpdate loads the row under a FOR UPDATE lock for transition checks.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Cooperation, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*model.Cooperation, error)
	List(ctx context.Context, filter CooperationFilter) ([]model.Cooperation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type cooperationRepository struct {
	db *gorm.DB
}

func NewCooperationRepository(db *gorm.DB) CooperationRepository {
	return &cooperationRepository{db: db}
}

func (r *cooperationRepository) Create(ctx context.Context, coop *model.Cooperation) error {
	return GetDB(ctx, r.db).Create(coop).Error
}

func (r *cooperationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Cooperation, error) {
	var coop model.Cooperation
	err := GetDB(ctx, r.db).
		Omit("document_data").
		Preload("Creator").
		First(&coop, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &coop, nil
}

func (r *cooperationRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Cooperation, error) {
	var coop model.Cooperation
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Omit("document_data").
		First(&coop, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &coop, nil
}

func (r *cooperationRepository) GetDocument(ctx context.Context, id uuid.UUID) (*model.Cooperation, error) {
	var coop model.Cooperation
	err := GetDB(ctx, r.db).
		Select("id", "document_name", "document_mime", "document_data", "created_by").
		First(&coop, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &coop, nil
}

func (r *cooperationRepository) List(ctx context.Context, filter CooperationFilter) ([]model.Cooperation, error) {
	query := GetDB(ctx, r.db).
		Omit("document_data").
		Preload("Creator")
	if filter.CreatedBy != nil {
		query = query.Where("created_by = ?", *filter.CreatedBy)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var coops []model.Cooperation
	if err := query.Order("created_at DESC").Find(&coops).Error; err != nil {
		return nil, err
	}
	return coops, nil
}

func (r *cooperationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Cooperation{}).
		Where("id = ?", id).
		Update("status", status).Error
}
