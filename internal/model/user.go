package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the central identity entity. Users are soft-deleted only; the core
// workflow never removes them so approval ledgers keep valid references.
type User struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username      string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email         string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash  string         `gorm:"type:varchar(255);not null" json:"-"`
	FullName      string         `gorm:"type:varchar(100);not null" json:"full_name"`
	NIP           *string        `gorm:"type:varchar(18);uniqueIndex" json:"nip"` // 18-digit staff ID, optional
	RoleID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"role_id"`
	Role          Role           `gorm:"foreignKey:RoleID" json:"role"`
	IsActive      bool           `gorm:"not null;default:true" json:"is_active"`
	EmailVerified bool           `gorm:"not null;default:false" json:"email_verified"`
	LastLogin     *time.Time     `json:"last_login"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// Session tracks an issued token pair. Sessions are deleted on logout and
// invalidated in bulk when the user changes their password.
type Session struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User         User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	AccessToken  string    `gorm:"type:text;not null" json:"-"`
	RefreshToken string    `gorm:"type:text;not null" json:"-"`
	IPAddress    string    `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent    string    `gorm:"type:varchar(255)" json:"user_agent"`
	ExpiresAt    time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}
