package service

import (
	"context"
	"strings"
	"testing"

	"commsdesk/internal/model"
	"commsdesk/pkg/apperr"

	"github.com/google/uuid"
)

func newTestUser(roleName string) *model.User {
	return &model.User{
		ID:       uuid.New(),
		Username: strings.ToLower(strings.ReplaceAll(roleName, " ", "_")),
		Role:     model.Role{ID: uuid.New(), Name: roleName},
		IsActive: true,
	}
}

func newContentFixture(t *testing.T) (ContentService, *fakeContentRepo, uuid.UUID) {
	t.Helper()
	contents := newFakeContentRepo()
	categories := newFakeCategoryRepo()

	category := &model.Category{Name: "News"}
	if err := categories.Create(context.Background(), category); err != nil {
		t.Fatalf("create category: %v", err)
	}

	svc := NewContentService(contents, categories, fakeTxManager{}, nopAudit{})
	return svc, contents, category.ID
}

func createDraft(t *testing.T, svc ContentService, author *model.User, categoryID uuid.UUID) *model.Content {
	t.Helper()
	content, err := svc.Create(context.Background(), author, CreateContentRequest{
		Title:      "Annual Press Briefing",
		Body:       "Details of the annual press briefing.",
		CategoryID: categoryID.String(),
	}, RequestMeta{})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if content.Status != model.ContentStatusDraft {
		t.Fatalf("new content status = %q, want draft", content.Status)
	}
	return content
}

func TestContentFullWorkflow(t *testing.T) {
	svc, _, categoryID := newContentFixture(t)
	ctx := context.Background()

	author := newTestUser(model.RoleUser)
	staff := newTestUser(model.RoleStaff)
	kasubbag := newTestUser(model.RoleKasubbag)

	content := createDraft(t, svc, author, categoryID)

	content, err := svc.Submit(ctx, author, content.ID, "", RequestMeta{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if content.Status != model.ContentStatusPending {
		t.Fatalf("status after submit = %q, want pending", content.Status)
	}

	if _, err := svc.Approve(ctx, staff, content.ID, "looks good", RequestMeta{}); err != nil {
		t.Fatalf("staff approve: %v", err)
	}

	// One approving role is not enough to publish.
	_, err = svc.Publish(ctx, kasubbag, content.ID, "", RequestMeta{})
	if apperr.KindOf(err) != apperr.IncompleteApprovalChain {
		t.Fatalf("publish with one sign-off: kind = %v, want IncompleteApprovalChain", apperr.KindOf(err))
	}

	if _, err := svc.Approve(ctx, kasubbag, content.ID, "", RequestMeta{}); err != nil {
		t.Fatalf("kasubbag approve: %v", err)
	}

	content, err = svc.Publish(ctx, kasubbag, content.ID, "", RequestMeta{})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if content.Status != model.ContentStatusPublished {
		t.Fatalf("status after publish = %q, want published", content.Status)
	}
	if content.PublishedAt == nil {
		t.Fatal("PublishedAt not set on publish")
	}

	// The ledger recorded every action.
	history, err := svc.ApprovalHistory(ctx, content.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	wantActions := map[string]int{
		model.ApprovalActionSubmit:  1,
		model.ApprovalActionApprove: 2,
		model.ApprovalActionPublish: 1,
	}
	got := map[string]int{}
	for _, entry := range history {
		got[entry.Action]++
	}
	for action, want := range wantActions {
		if got[action] != want {
			t.Errorf("ledger has %d %q entries, want %d", got[action], action, want)
		}
	}
}

func TestContentSubmitOnlyFromDraft(t *testing.T) {
	svc, _, categoryID := newContentFixture(t)
	ctx := context.Background()
	author := newTestUser(model.RoleUser)

	content := createDraft(t, svc, author, categoryID)
	if _, err := svc.Submit(ctx, author, content.ID, "", RequestMeta{}); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	_, err := svc.Submit(ctx, author, content.ID, "", RequestMeta{})
	if apperr.KindOf(err) != apperr.InvalidTransition {
		t.Fatalf("double submit: kind = %v, want InvalidTransition", apperr.KindOf(err))
	}
}

func TestContentSubmitAuthorOnly(t *testing.T) {
	svc, _, categoryID := newContentFixture(t)
	author := newTestUser(model.RoleUser)
	other := newTestUser(model.RoleStaff)

	content := createDraft(t, svc, author, categoryID)

	_, err := svc.Submit(context.Background(), other, content.ID, "", RequestMeta{})
	if apperr.KindOf(err) != apperr.Forbidden {
		t.Fatalf("submit by non-author: kind = %v, want Forbidden", apperr.KindOf(err))
	}
}

func TestContentRepeatedApprovalsGrowLedger(t *testing.T) {
	svc, repo, categoryID := newContentFixture(t)
	ctx := context.Background()
	author := newTestUser(model.RoleUser)
	staff := newTestUser(model.RoleStaff)

	content := createDraft(t, svc, author, categoryID)
	if _, err := svc.Submit(ctx, author, content.ID, "", RequestMeta{}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	for i := 0; i < 3; i++ {
		updated, err := svc.Approve(ctx, staff, content.ID, "", RequestMeta{})
		if err != nil {
			t.Fatalf("approve #%d: %v", i+1, err)
		}
		if updated.Status != model.ContentStatusApproved {
			t.Fatalf("status after approve #%d = %q, want approved", i+1, updated.Status)
		}
	}

	n := 0
	for _, entry := range repo.approvals {
		if entry.Action == model.ApprovalActionApprove {
			n++
		}
	}
	if n != 3 {
		t.Fatalf("ledger has %d approve entries, want 3", n)
	}

	// Distinct roles stays at one no matter how often the same role signs.
	roles, err := repo.ApprovedRoles(ctx, content.ID)
	if err != nil {
		t.Fatalf("approved roles: %v", err)
	}
	if len(roles) != 1 || roles[0] != model.RoleStaff {
		t.Fatalf("approved roles = %v, want [%s]", roles, model.RoleStaff)
	}
}

func TestContentRejectRequiresNotes(t *testing.T) {
	svc, _, categoryID := newContentFixture(t)
	ctx := context.Background()
	author := newTestUser(model.RoleUser)
	staff := newTestUser(model.RoleStaff)

	content := createDraft(t, svc, author, categoryID)
	if _, err := svc.Submit(ctx, author, content.ID, "", RequestMeta{}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err := svc.Reject(ctx, staff, content.ID, "   ", RequestMeta{})
	if apperr.KindOf(err) != apperr.Validation {
		t.Fatalf("reject without notes: kind = %v, want Validation", apperr.KindOf(err))
	}

	rejected, err := svc.Reject(ctx, staff, content.ID, "needs a better headline", RequestMeta{})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != model.ContentStatusRejected {
		t.Fatalf("status after reject = %q, want rejected", rejected.Status)
	}

	// Rejected is terminal.
	_, err = svc.Approve(ctx, staff, content.ID, "", RequestMeta{})
	if apperr.KindOf(err) != apperr.InvalidTransition {
		t.Fatalf("approve after reject: kind = %v, want InvalidTransition", apperr.KindOf(err))
	}
}

func TestContentPublishOnlyFromApproved(t *testing.T) {
	svc, _, categoryID := newContentFixture(t)
	ctx := context.Background()
	author := newTestUser(model.RoleUser)
	kasubbag := newTestUser(model.RoleKasubbag)

	content := createDraft(t, svc, author, categoryID)

	_, err := svc.Publish(ctx, kasubbag, content.ID, "", RequestMeta{})
	if apperr.KindOf(err) != apperr.InvalidTransition {
		t.Fatalf("publish draft: kind = %v, want InvalidTransition", apperr.KindOf(err))
	}
}

func TestContentNotFound(t *testing.T) {
	svc, _, _ := newContentFixture(t)
	staff := newTestUser(model.RoleStaff)

	_, err := svc.Approve(context.Background(), staff, uuid.New(), "", RequestMeta{})
	if apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("approve missing content: kind = %v, want NotFound", apperr.KindOf(err))
	}
}

func TestMakeSlug(t *testing.T) {
	slug := makeSlug("Hello, World! 2026")
	if !strings.HasPrefix(slug, "hello-world-2026-") {
		t.Fatalf("slug = %q, want hello-world-2026-<ts> prefix", slug)
	}

	a, b := makeSlug("Same Title"), makeSlug("Same Title")
	if a == b {
		t.Fatalf("slugs for identical titles collide: %q", a)
	}
}
