package service

import (
	"context"
	"encoding/base64"
	"testing"

	"commsdesk/internal/model"
	"commsdesk/pkg/apperr"
)

func newCoopFixture() (CooperationService, *fakeCoopRepo) {
	repo := newFakeCoopRepo()
	return NewCooperationService(repo, fakeTxManager{}, nopAudit{}), repo
}

func submitCoop(t *testing.T, svc CooperationService, creator *model.User) *model.Cooperation {
	t.Helper()
	coop, err := svc.Create(context.Background(), creator, CreateCooperationRequest{
		InstitutionName: "Universitas Merdeka",
		ContactName:     "Budi Santoso",
		Email:           "budi@merdeka.ac.id",
		Phone:           "+62811234567",
		Purpose:         "Joint cybersecurity seminar",
		EventDate:       "2026-10-15",
		DocumentName:    "proposal.pdf",
		DocumentMime:    "application/pdf",
		Document:        base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 proposal")),
	}, RequestMeta{})
	if err != nil {
		t.Fatalf("create cooperation: %v", err)
	}
	if coop.Status != model.CoopStatusPending {
		t.Fatalf("new cooperation status = %q, want pending", coop.Status)
	}
	return coop
}

func TestCooperationHappyPath(t *testing.T) {
	svc, _ := newCoopFixture()
	ctx := context.Background()

	creator := newTestUser(model.RoleUser)
	staff := newTestUser(model.RoleStaff)
	kasubbag := newTestUser(model.RoleKasubbag)

	coop := submitCoop(t, svc, creator)

	coop, err := svc.Verify(ctx, staff, coop.ID, RequestMeta{})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if coop.Status != model.CoopStatusVerified {
		t.Fatalf("status after verify = %q, want verified", coop.Status)
	}

	coop, err = svc.Approve(ctx, kasubbag, coop.ID, RequestMeta{})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if coop.Status != model.CoopStatusApproved {
		t.Fatalf("status after approve = %q, want approved", coop.Status)
	}
}

func TestCooperationApproveNeedsVerification(t *testing.T) {
	svc, _ := newCoopFixture()
	creator := newTestUser(model.RoleUser)
	kasubbag := newTestUser(model.RoleKasubbag)

	coop := submitCoop(t, svc, creator)

	_, err := svc.Approve(context.Background(), kasubbag, coop.ID, RequestMeta{})
	if apperr.KindOf(err) != apperr.InvalidTransition {
		t.Fatalf("approve pending: kind = %v, want InvalidTransition", apperr.KindOf(err))
	}
}

func TestCooperationRejectIsTerminal(t *testing.T) {
	svc, _ := newCoopFixture()
	ctx := context.Background()
	creator := newTestUser(model.RoleUser)
	staff := newTestUser(model.RoleStaff)

	coop := submitCoop(t, svc, creator)

	rejected, err := svc.Reject(ctx, staff, coop.ID, RequestMeta{})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != model.CoopStatusRejected {
		t.Fatalf("status after reject = %q, want rejected", rejected.Status)
	}

	_, err = svc.Verify(ctx, staff, coop.ID, RequestMeta{})
	if apperr.KindOf(err) != apperr.InvalidTransition {
		t.Fatalf("verify after reject: kind = %v, want InvalidTransition", apperr.KindOf(err))
	}
}

func TestCooperationRejectRoleGate(t *testing.T) {
	svc, _ := newCoopFixture()
	creator := newTestUser(model.RoleUser)

	coop := submitCoop(t, svc, creator)

	_, err := svc.Reject(context.Background(), creator, coop.ID, RequestMeta{})
	if apperr.KindOf(err) != apperr.Forbidden {
		t.Fatalf("reject by regular user: kind = %v, want Forbidden", apperr.KindOf(err))
	}
}

func TestCooperationVisibility(t *testing.T) {
	svc, _ := newCoopFixture()
	ctx := context.Background()

	creator := newTestUser(model.RoleUser)
	stranger := newTestUser(model.RoleUser)
	staff := newTestUser(model.RoleStaff)

	coop := submitCoop(t, svc, creator)
	_ = submitCoop(t, svc, stranger)

	// The creator and staff can read it; another regular user cannot.
	if _, err := svc.Get(ctx, creator, coop.ID); err != nil {
		t.Fatalf("creator get: %v", err)
	}
	if _, err := svc.Get(ctx, staff, coop.ID); err != nil {
		t.Fatalf("staff get: %v", err)
	}
	if _, err := svc.Get(ctx, stranger, coop.ID); apperr.KindOf(err) != apperr.Forbidden {
		t.Fatalf("stranger get: kind = %v, want Forbidden", apperr.KindOf(err))
	}

	// Listing scopes regular users to their own applications.
	own, err := svc.List(ctx, creator, "")
	if err != nil {
		t.Fatalf("creator list: %v", err)
	}
	if len(own) != 1 || own[0].CreatedBy != creator.ID {
		t.Fatalf("creator sees %d cooperations, want exactly their own", len(own))
	}

	all, err := svc.List(ctx, staff, "")
	if err != nil {
		t.Fatalf("staff list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("staff sees %d cooperations, want 2", len(all))
	}
}

func TestCooperationDocumentAccess(t *testing.T) {
	svc, _ := newCoopFixture()
	ctx := context.Background()

	creator := newTestUser(model.RoleUser)
	stranger := newTestUser(model.RoleUser)

	coop := submitCoop(t, svc, creator)

	doc, err := svc.Document(ctx, creator, coop.ID)
	if err != nil {
		t.Fatalf("creator document: %v", err)
	}
	if doc.Name != "proposal.pdf" || len(doc.Data) == 0 {
		t.Fatalf("document = %q (%d bytes), want proposal.pdf with content", doc.Name, len(doc.Data))
	}

	if _, err := svc.Document(ctx, stranger, coop.ID); apperr.KindOf(err) != apperr.Forbidden {
		t.Fatalf("stranger document: kind = %v, want Forbidden", apperr.KindOf(err))
	}
}

func TestCooperationCreateValidation(t *testing.T) {
	svc, _ := newCoopFixture()
	creator := newTestUser(model.RoleUser)

	base := CreateCooperationRequest{
		InstitutionName: "Universitas Merdeka",
		ContactName:     "Budi Santoso",
		Email:           "budi@merdeka.ac.id",
		Phone:           "+62811234567",
		Purpose:         "Seminar",
		EventDate:       "2026-10-15",
		DocumentName:    "proposal.pdf",
		Document:        base64.StdEncoding.EncodeToString([]byte("doc")),
	}

	badDate := base
	badDate.EventDate = "15/10/2026"
	if _, err := svc.Create(context.Background(), creator, badDate, RequestMeta{}); apperr.KindOf(err) != apperr.Validation {
		t.Errorf("bad event date accepted")
	}

	badDoc := base
	badDoc.Document = "not-base64!!"
	if _, err := svc.Create(context.Background(), creator, badDoc, RequestMeta{}); apperr.KindOf(err) != apperr.Validation {
		t.Errorf("bad base64 document accepted")
	}

	badEmail := base
	badEmail.Email = "not-an-email"
	if _, err := svc.Create(context.Background(), creator, badEmail, RequestMeta{}); apperr.KindOf(err) != apperr.Validation {
		t.Errorf("bad email accepted")
	}
}
