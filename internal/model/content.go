package model

import (
	"time"

	"github.com/google/uuid"
)

// Content lifecycle states. Published and rejected are terminal.
const (
	ContentStatusDraft     = "draft"
	ContentStatusPending   = "pending"
	ContentStatusApproved  = "approved"
	ContentStatusPublished = "published"
	ContentStatusRejected  = "rejected"
)

// Ledger actions recorded in content_approvals.
const (
	ApprovalActionSubmit  = "submit"
	ApprovalActionApprove = "approve"
	ApprovalActionPublish = "publish"
	ApprovalActionReject  = "reject"
)

// Content is an article moving through the draft -> pending -> approved ->
// published workflow. PublishedAt is non-nil iff Status is published.
type Content struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title         string     `gorm:"type:varchar(255);not null" json:"title"`
	Slug          string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Excerpt       string     `gorm:"type:text" json:"excerpt"`
	Body          string     `gorm:"type:text;not null" json:"body"`
	CategoryID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"category_id"`
	Category      Category   `gorm:"foreignKey:CategoryID" json:"category"`
	AuthorID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"author_id"`
	Author        User       `gorm:"foreignKey:AuthorID" json:"author"`
	FeaturedImage *string    `gorm:"type:varchar(500)" json:"featured_image"`
	Status        string     `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	PublishedAt   *time.Time `json:"published_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// ContentApproval is one row of the append-only sign-off ledger. ApproverRole
// snapshots the actor's role name at action time so the record stays accurate
// even if the user's role changes later. Rows are never updated or deleted;
// the distinct approver roles with action=approve gate publication.
type ContentApproval struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ContentID    uuid.UUID `gorm:"type:uuid;not null;index" json:"content_id"`
	ApproverID   uuid.UUID `gorm:"type:uuid;not null" json:"approver_id"`
	Approver     User      `gorm:"foreignKey:ApproverID" json:"approver"`
	ApproverRole string    `gorm:"type:varchar(50);not null" json:"approver_role"`
	Action       string    `gorm:"type:varchar(20);not null;index" json:"action"`
	Notes        string    `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
