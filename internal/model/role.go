package model

import (
	"time"

	"github.com/google/uuid"
)

// Built-in role names. RoleStaff and RoleKasubbag are the two sign-offs a
// content item needs before it may be published.
const (
	RoleUser     = "User"
	RoleStaff    = "Staff Jashumas"
	RoleKasubbag = "Kasubbag Jashumas"
)

// PublishGateRoles lists the distinct approver roles that must all appear in
// a content's approval ledger before publication.
var PublishGateRoles = []string{RoleStaff, RoleKasubbag}

// Permission codes referenced by route guards and the approval engine.
const (
	PermContentCreate   = "content.create"
	PermContentApprove  = "content.approve"
	PermContentPublish  = "content.publish"
	PermCategoryCreate  = "category.create"
	PermCategoryUpdate  = "category.update"
	PermCategoryDelete  = "category.delete"
	PermCoopSubmit      = "submit_coop"
	PermCoopVerify      = "verify_coop"
	PermCoopApprove     = "approve_coop"
	PermAuditRead       = "audit.read"
)

// Role represents a user role with associated permissions.
type Role struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	IsSystem    bool         `gorm:"default:false" json:"is_system"` // Prevent deletion of built-in roles
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Permission is a single named capability assignable to roles.
type Permission struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code  string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"` // e.g. "content.approve"
	Name  string    `gorm:"type:varchar(255);not null" json:"name"`
	Group string    `gorm:"type:varchar(50);not null;index" json:"group"` // "content", "category", "cooperation"
}
