package service

import (
	"context"
	"strings"
	"time"

	"commsdesk/internal/model"
	"commsdesk/internal/repository"
	"commsdesk/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory doubles for the repository interfaces. They keep the tests free
// of a database while preserving gorm.ErrRecordNotFound semantics.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type nopAudit struct{}

func (nopAudit) Record(context.Context, *uuid.UUID, string, string, RequestMeta, map[string]interface{}) {
}

func (nopAudit) List(context.Context, pagination.Params) ([]model.AuditLog, *pagination.Meta, error) {
	return nil, nil, nil
}

// --- content ---

type fakeContentRepo struct {
	contents  map[uuid.UUID]model.Content
	approvals []model.ContentApproval
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{contents: make(map[uuid.UUID]model.Content)}
}

var _ repository.ContentRepository = (*fakeContentRepo)(nil)

func (f *fakeContentRepo) Create(_ context.Context, content *model.Content) error {
	if content.ID == uuid.Nil {
		content.ID = uuid.New()
	}
	f.contents[content.ID] = *content
	return nil
}

func (f *fakeContentRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Content, error) {
	content, ok := f.contents[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := content
	return &copied, nil
}

func (f *fakeContentRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Content, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeContentRepo) List(_ context.Context, filter repository.ContentFilter) ([]model.Content, int64, error) {
	var out []model.Content
	for _, content := range f.contents {
		if filter.Status != "" && content.Status != filter.Status {
			continue
		}
		if filter.CategoryID != nil && content.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.AuthorID != nil && content.AuthorID != *filter.AuthorID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(content.Title), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, content)
	}
	return out, int64(len(out)), nil
}

func (f *fakeContentRepo) Update(_ context.Context, content *model.Content) error {
	if _, ok := f.contents[content.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.contents[content.ID] = *content
	return nil
}

func (f *fakeContentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.contents, id)
	return nil
}

func (f *fakeContentRepo) AppendApproval(_ context.Context, approval *model.ContentApproval) error {
	if approval.ID == uuid.Nil {
		approval.ID = uuid.New()
	}
	approval.CreatedAt = time.Now()
	f.approvals = append(f.approvals, *approval)
	return nil
}

func (f *fakeContentRepo) ApprovalHistory(_ context.Context, contentID uuid.UUID) ([]model.ContentApproval, error) {
	var out []model.ContentApproval
	for _, a := range f.approvals {
		if a.ContentID == contentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeContentRepo) ApprovedRoles(_ context.Context, contentID uuid.UUID) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, a := range f.approvals {
		if a.ContentID == contentID && a.Action == model.ApprovalActionApprove && !seen[a.ApproverRole] {
			seen[a.ApproverRole] = true
			out = append(out, a.ApproverRole)
		}
	}
	return out, nil
}

// --- category ---

type fakeCategoryRepo struct {
	categories map[uuid.UUID]model.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: make(map[uuid.UUID]model.Category)}
}

var _ repository.CategoryRepository = (*fakeCategoryRepo)(nil)

func (f *fakeCategoryRepo) Create(_ context.Context, category *model.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	f.categories[category.ID] = *category
	return nil
}

func (f *fakeCategoryRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	category, ok := f.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := category
	return &copied, nil
}

func (f *fakeCategoryRepo) GetByName(_ context.Context, name string) (*model.Category, error) {
	for _, category := range f.categories {
		if category.Name == name {
			copied := category
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCategoryRepo) List(_ context.Context) ([]model.Category, error) {
	var out []model.Category
	for _, category := range f.categories {
		out = append(out, category)
	}
	return out, nil
}

func (f *fakeCategoryRepo) Update(_ context.Context, category *model.Category) error {
	f.categories[category.ID] = *category
	return nil
}

func (f *fakeCategoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.categories, id)
	return nil
}

// --- cooperation ---

type fakeCoopRepo struct {
	coops map[uuid.UUID]model.Cooperation
}

func newFakeCoopRepo() *fakeCoopRepo {
	return &fakeCoopRepo{coops: make(map[uuid.UUID]model.Cooperation)}
}

var _ repository.CooperationRepository = (*fakeCoopRepo)(nil)

func (f *fakeCoopRepo) Create(_ context.Context, coop *model.Cooperation) error {
	if coop.ID == uuid.Nil {
		coop.ID = uuid.New()
	}
	f.coops[coop.ID] = *coop
	return nil
}

func (f *fakeCoopRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Cooperation, error) {
	coop, ok := f.coops[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := coop
	copied.DocumentData = nil
	return &copied, nil
}

func (f *fakeCoopRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Cooperation, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeCoopRepo) GetDocument(_ context.Context, id uuid.UUID) (*model.Cooperation, error) {
	coop, ok := f.coops[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := coop
	return &copied, nil
}

func (f *fakeCoopRepo) List(_ context.Context, filter repository.CooperationFilter) ([]model.Cooperation, error) {
	var out []model.Cooperation
	for _, coop := range f.coops {
		if filter.Status != "" && coop.Status != filter.Status {
			continue
		}
		if filter.CreatedBy != nil && coop.CreatedBy != *filter.CreatedBy {
			continue
		}
		coop.DocumentData = nil
		out = append(out, coop)
	}
	return out, nil
}

func (f *fakeCoopRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	coop, ok := f.coops[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	coop.Status = status
	f.coops[id] = coop
	return nil
}

// --- user / session / role ---

type fakeUserRepo struct {
	users map[uuid.UUID]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]model.User)}
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := user
	return &copied, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			copied := user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByNIP(_ context.Context, nip string) (*model.User, error) {
	for _, user := range f.users {
		if user.NIP != nil && *user.NIP == nip {
			copied := user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetActiveByIdentifier(_ context.Context, identifier string) (*model.User, error) {
	for _, user := range f.users {
		if (user.Username == identifier || user.Email == identifier) && user.IsActive {
			copied := user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) List(_ context.Context, _, _ int) ([]model.User, int64, error) {
	var out []model.User
	for _, user := range f.users {
		out = append(out, user)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	user, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.PasswordHash = hash
	f.users[id] = user
	return nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	user, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.LastLogin = &at
	f.users[id] = user
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.users, id)
	return nil
}

type fakeSessionRepo struct {
	sessions map[uuid.UUID]model.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]model.Session)}
}

var _ repository.SessionRepository = (*fakeSessionRepo)(nil)

func (f *fakeSessionRepo) Create(_ context.Context, session *model.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	f.sessions[session.ID] = *session
	return nil
}

func (f *fakeSessionRepo) DeleteByAccessToken(_ context.Context, userID uuid.UUID, accessToken string) error {
	for id, session := range f.sessions {
		if session.UserID == userID && session.AccessToken == accessToken {
			delete(f.sessions, id)
		}
	}
	return nil
}

func (f *fakeSessionRepo) DeleteAllForUser(_ context.Context, userID uuid.UUID) error {
	for id, session := range f.sessions {
		if session.UserID == userID {
			delete(f.sessions, id)
		}
	}
	return nil
}

func (f *fakeSessionRepo) countFor(userID uuid.UUID) int {
	n := 0
	for _, session := range f.sessions {
		if session.UserID == userID {
			n++
		}
	}
	return n
}

type fakeRoleRepo struct {
	roles map[string]model.Role
}

func newFakeRoleRepo(names ...string) *fakeRoleRepo {
	f := &fakeRoleRepo{roles: make(map[string]model.Role)}
	for _, name := range names {
		f.roles[name] = model.Role{ID: uuid.New(), Name: name}
	}
	return f
}

var _ repository.RoleRepository = (*fakeRoleRepo)(nil)

func (f *fakeRoleRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Role, error) {
	for _, role := range f.roles {
		if role.ID == id {
			copied := role
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRoleRepo) GetByName(_ context.Context, name string) (*model.Role, error) {
	role, ok := f.roles[name]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := role
	return &copied, nil
}

func (f *fakeRoleRepo) List(_ context.Context) ([]model.Role, error) {
	var out []model.Role
	for _, role := range f.roles {
		out = append(out, role)
	}
	return out, nil
}

func (f *fakeRoleRepo) ListPermissions(_ context.Context) ([]model.Permission, error) {
	return nil, nil
}
