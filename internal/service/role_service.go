package service

import (
	"context"
	"errors"
	"fmt"

	"commsdesk/internal/model"
	"commsdesk/internal/repository"
	"commsdesk/pkg/apperr"

	"gorm.io/gorm"
)

// RoleService exposes the role and permission catalog and seeds the built-in
// assignments at startup.
type RoleService interface {
	ListRoles(ctx context.Context) ([]model.Role, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)
}

type roleService struct {
	roles repository.RoleRepository
}

func NewRoleService(roles repository.RoleRepository) RoleService {
	return &roleService{roles: roles}
}

func (s *roleService) ListRoles(ctx context.Context) ([]model.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Store, "failed to list roles", err)
	}
	return roles, nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	perms, err := s.roles.ListPermissions(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Store, "failed to list permissions", err)
	}
	return perms, nil
}

// seedPermissions lists every capability with its display name and group.
var seedPermissions = []model.Permission{
	{Code: model.PermContentCreate, Name: "Create content", Group: "content"},
	{Code: model.PermContentApprove, Name: "Approve content", Group: "content"},
	{Code: model.PermContentPublish, Name: "Publish content", Group: "content"},
	{Code: model.PermCategoryCreate, Name: "Create categories", Group: "category"},
	{Code: model.PermCategoryUpdate, Name: "Update categories", Group: "category"},
	{Code: model.PermCategoryDelete, Name: "Delete categories", Group: "category"},
	{Code: model.PermCoopSubmit, Name: "Submit cooperation applications", Group: "cooperation"},
	{Code: model.PermCoopVerify, Name: "Verify cooperation applications", Group: "cooperation"},
	{Code: model.PermCoopApprove, Name: "Approve cooperation applications", Group: "cooperation"},
	{Code: model.PermAuditRead, Name: "Read audit logs", Group: "audit"},
}

// seedRolePermissions maps each built-in role to its permission codes.
var seedRolePermissions = map[string][]string{
	model.RoleUser: {
		model.PermContentCreate,
		model.PermCoopSubmit,
	},
	model.RoleStaff: {
		model.PermContentCreate,
		model.PermContentApprove,
		model.PermCoopSubmit,
		model.PermCoopVerify,
		model.PermAuditRead,
	},
	model.RoleKasubbag: {
		model.PermContentCreate,
		model.PermContentApprove,
		model.PermContentPublish,
		model.PermCategoryCreate,
		model.PermCategoryUpdate,
		model.PermCategoryDelete,
		model.PermCoopSubmit,
		model.PermCoopVerify,
		model.PermCoopApprove,
		model.PermAuditRead,
	},
}

var seedRoleDescriptions = map[string]string{
	model.RoleUser:     "Regular user: authors content and submits cooperation applications",
	model.RoleStaff:    "Public relations staff: first-line reviewer and verifier",
	model.RoleKasubbag: "Section head: final approver and publisher",
}

// SeedDefaultRolesAndPermissions creates the built-in roles, the permission
// catalog and their assignments. It is idempotent and safe to run on every
// startup: existing rows are reused, missing ones created, and each role's
// permission set is replaced with the canonical assignment.
func SeedDefaultRolesAndPermissions(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		permsByCode := make(map[string]model.Permission, len(seedPermissions))
		for _, seed := range seedPermissions {
			var perm model.Permission
			err := tx.Where("code = ?", seed.Code).First(&perm).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				perm = seed
				if err := tx.Create(&perm).Error; err != nil {
					return fmt.Errorf("seed permission %s: %w", seed.Code, err)
				}
			} else if err != nil {
				return fmt.Errorf("seed permission %s: %w", seed.Code, err)
			}
			permsByCode[perm.Code] = perm
		}

		for roleName, codes := range seedRolePermissions {
			var role model.Role
			err := tx.Where("name = ?", roleName).First(&role).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				role = model.Role{
					Name:        roleName,
					Description: seedRoleDescriptions[roleName],
					IsSystem:    true,
				}
				if err := tx.Create(&role).Error; err != nil {
					return fmt.Errorf("seed role %s: %w", roleName, err)
				}
			} else if err != nil {
				return fmt.Errorf("seed role %s: %w", roleName, err)
			}

			assigned := make([]model.Permission, 0, len(codes))
			for _, code := range codes {
				assigned = append(assigned, permsByCode[code])
			}
			if err := tx.Model(&role).Association("Permissions").Replace(assigned); err != nil {
				return fmt.Errorf("assign permissions to %s: %w", roleName, err)
			}
		}

		return nil
	})
}
