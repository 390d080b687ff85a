package service

import (
	"context"
	"testing"

	"commsdesk/internal/model"
	"commsdesk/pkg/apperr"
)

func TestCategoryCreateDuplicateName(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryRepo(), newFakeContentRepo())
	ctx := context.Background()

	if _, err := svc.Create(ctx, CategoryRequest{Name: "News"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, CategoryRequest{Name: "News"}); apperr.KindOf(err) != apperr.Conflict {
		t.Fatalf("duplicate name: kind = %v, want Conflict", apperr.KindOf(err))
	}
}

func TestCategoryDeleteInUse(t *testing.T) {
	categories := newFakeCategoryRepo()
	contents := newFakeContentRepo()
	svc := NewCategoryService(categories, contents)
	ctx := context.Background()

	category, err := svc.Create(ctx, CategoryRequest{Name: "Events"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	author := newTestUser(model.RoleUser)
	content := &model.Content{
		Title:      "Upcoming Event",
		Slug:       "upcoming-event",
		Body:       "body",
		CategoryID: category.ID,
		AuthorID:   author.ID,
		Status:     model.ContentStatusDraft,
	}
	if err := contents.Create(ctx, content); err != nil {
		t.Fatalf("create content: %v", err)
	}

	if err := svc.Delete(ctx, category.ID); apperr.KindOf(err) != apperr.Conflict {
		t.Fatalf("delete in-use category: kind = %v, want Conflict", apperr.KindOf(err))
	}

	if err := contents.Delete(ctx, content.ID); err != nil {
		t.Fatalf("remove content: %v", err)
	}
	if err := svc.Delete(ctx, category.ID); err != nil {
		t.Fatalf("delete unused category: %v", err)
	}
}
