package model

import (
	"time"

	"github.com/google/uuid"
)

// Cooperation lifecycle states. Transitions are strictly monotonic along
// pending -> verified -> approved; rejected is reachable from pending or
// verified. Approved and rejected are terminal.
const (
	CoopStatusPending  = "pending"
	CoopStatusVerified = "verified"
	CoopStatusApproved = "approved"
	CoopStatusRejected = "rejected"
)

// Cooperation is an external partnership application with an attached
// supporting document. The creator keeps read visibility; only verifier and
// approver roles mutate it.
type Cooperation struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InstitutionName string    `gorm:"type:varchar(255);not null" json:"institution_name"`
	ContactName     string    `gorm:"type:varchar(100);not null" json:"contact_name"`
	Email           string    `gorm:"type:varchar(255);not null" json:"email"`
	Phone           string    `gorm:"type:varchar(20);not null" json:"phone"`
	Purpose         string    `gorm:"type:text;not null" json:"purpose"`
	EventDate       time.Time `gorm:"type:date;not null" json:"event_date"`
	DocumentName    string    `gorm:"type:varchar(255);not null" json:"document_name"`
	DocumentMime    string    `gorm:"type:varchar(100)" json:"document_mime"`
	DocumentData    []byte    `gorm:"type:bytea" json:"-"`
	Status          string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedBy       uuid.UUID `gorm:"type:uuid;not null;index" json:"created_by"`
	Creator         User      `gorm:"foreignKey:CreatedBy" json:"creator"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
