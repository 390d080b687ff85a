package model

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions per module.
const (
	ActionUserRegistered  = "USER_REGISTERED"
	ActionUserLogin       = "USER_LOGIN"
	ActionUserLogout      = "USER_LOGOUT"
	ActionProfileUpdated  = "PROFILE_UPDATED"
	ActionPasswordChanged = "PASSWORD_CHANGED"
	ActionPasswordReset   = "PASSWORD_RESET"

	ActionContentCreated   = "CONTENT_CREATED"
	ActionContentUpdated   = "CONTENT_UPDATED"
	ActionContentDeleted   = "CONTENT_DELETED"
	ActionContentSubmitted = "CONTENT_SUBMITTED"
	ActionContentApproved  = "CONTENT_APPROVED"
	ActionContentPublished = "CONTENT_PUBLISHED"
	ActionContentRejected  = "CONTENT_REJECTED"

	ActionCoopCreated  = "COOPERATION_CREATED"
	ActionCoopVerified = "COOPERATION_VERIFIED"
	ActionCoopApproved = "COOPERATION_APPROVED"
	ActionCoopRejected = "COOPERATION_REJECTED"
)

// Audit modules.
const (
	ModuleUser        = "user"
	ModuleContent     = "content"
	ModuleCategory    = "category"
	ModuleCooperation = "cooperation"
)

// AuditLog tracks who did what and from where. Rows are written best-effort
// on every state-changing call; a failed write never aborts the operation.
type AuditLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User      *User      `gorm:"foreignKey:UserID" json:"user"`
	Action    string     `gorm:"type:varchar(50);not null;index" json:"action"`
	Module    string     `gorm:"type:varchar(30);not null;index" json:"module"`
	IPAddress string     `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent string     `gorm:"type:varchar(255)" json:"user_agent"`
	Details   string     `gorm:"type:jsonb" json:"details"` // serialized JSON payload
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}
