package service

import (
	"context"
	"errors"

	"commsdesk/internal/mailer"
	"commsdesk/internal/model"
	"commsdesk/internal/repository"
	"commsdesk/pkg/apperr"
	"commsdesk/pkg/auth"
	"commsdesk/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateUserRequest carries an admin-created account.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	NIP      string `json:"nip"`
	RoleName string `json:"role" binding:"required"`
}

// UpdateUserRequest carries admin edits. Pointer fields distinguish "leave
// unchanged" from an explicit value.
type UpdateUserRequest struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	NIP      *string `json:"nip"`
	RoleName *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

// ResetPasswordRequest carries an admin-set replacement password.
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required"`
}

// UserService implements administrative account management. Route guards
// restrict reads to the Jashumas roles and mutations to the section head.
type UserService interface {
	List(ctx context.Context, p pagination.Params) ([]model.User, *pagination.Meta, error)
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	Create(ctx context.Context, actor *model.User, req CreateUserRequest, meta RequestMeta) (*model.User, error)
	Update(ctx context.Context, actor *model.User, id uuid.UUID, req UpdateUserRequest, meta RequestMeta) (*model.User, error)
	Delete(ctx context.Context, actor *model.User, id uuid.UUID, meta RequestMeta) error
	ResetPassword(ctx context.Context, actor *model.User, id uuid.UUID, req ResetPasswordRequest, meta RequestMeta) error
}

type userService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	roles    repository.RoleRepository
	txm      repository.TransactionManager
	audit    AuditService
	mail     mailer.Mailer
}

func NewUserService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	roles repository.RoleRepository,
	txm repository.TransactionManager,
	audit AuditService,
	mail mailer.Mailer,
) UserService {
	return &userService{
		users:    users,
		sessions: sessions,
		roles:    roles,
		txm:      txm,
		audit:    audit,
		mail:     mail,
	}
}

func (s *userService) List(ctx context.Context, p pagination.Params) ([]model.User, *pagination.Meta, error) {
	users, total, err := s.users.List(ctx, p.Offset, p.PerPage)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.Store, "failed to list users", err)
	}
	meta := p.MetaFor(total)
	return users, &meta, nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "User not found")
		}
		return nil, apperr.Wrap(apperr.Store, "failed to load user", err)
	}
	return user, nil
}

func (s *userService) Create(ctx context.Context, actor *model.User, req CreateUserRequest, meta RequestMeta) (*model.User, error) {
	if err := validateUsername(req.Username); err != nil {
		return nil, err
	}
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperr.New(apperr.Validation, err.Error())
	}
	if err := validateFullName(req.FullName); err != nil {
		return nil, err
	}
	if req.NIP != "" {
		if err := validateNIP(req.NIP); err != nil {
			return nil, err
		}
	}

	role, err := s.roles.GetByName(ctx, req.RoleName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.Validation, "Unknown role")
		}
		return nil, apperr.Wrap(apperr.Store, "failed to load role", err)
	}

	if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		return nil, apperr.New(apperr.Conflict, "Username already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.Store, "failed to check username", err)
	}
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperr.New(apperr.Conflict, "Email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.Store, "failed to check email", err)
	}
	if req.NIP != "" {
		if _, err := s.users.GetByNIP(ctx, req.NIP); err == nil {
			return nil, apperr.New(apperr.Conflict, "NIP already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.Store, "failed to check NIP", err)
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.Store, "failed to hash password", err)
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		RoleID:       role.ID,
		IsActive:     true,
	}
	if req.NIP != "" {
		nip := req.NIP
		user.NIP = &nip
	}

	user.Role = *role

	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperr.Wrap(apperr.Store, "failed to create user", err)
	}

	s.audit.Record(ctx, &actor.ID, model.ActionUserRegistered, model.ModuleUser, meta,
		map[string]interface{}{"username": user.Username, "role": role.Name, "created_by": actor.Username})
	s.mail.SendWelcome(user.Email, user.FullName)

	return user, nil
}

func (s *userService) Update(ctx context.Context, actor *model.User, id uuid.UUID, req UpdateUserRequest, meta RequestMeta) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := map[string]interface{}{}

	if req.FullName != nil {
		if err := validateFullName(*req.FullName); err != nil {
			return nil, err
		}
		user.FullName = *req.FullName
		changed["full_name"] = *req.FullName
	}
	if req.Email != nil && *req.Email != user.Email {
		if err := validateEmail(*req.Email); err != nil {
			return nil, err
		}
		if _, err := s.users.GetByEmail(ctx, *req.Email); err == nil {
			return nil, apperr.New(apperr.Conflict, "Email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.Store, "failed to check email", err)
		}
		user.Email = *req.Email
		user.EmailVerified = false
		changed["email"] = *req.Email
	}
	if req.NIP != nil && (user.NIP == nil || *req.NIP != *user.NIP) {
		if err := validateNIP(*req.NIP); err != nil {
			return nil, err
		}
		if _, err := s.users.GetByNIP(ctx, *req.NIP); err == nil {
			return nil, apperr.New(apperr.Conflict, "NIP already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.Store, "failed to check NIP", err)
		}
		user.NIP = req.NIP
		changed["nip"] = *req.NIP
	}
	if req.RoleName != nil && *req.RoleName != user.Role.Name {
		role, err := s.roles.GetByName(ctx, *req.RoleName)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.New(apperr.Validation, "Unknown role")
			}
			return nil, apperr.Wrap(apperr.Store, "failed to load role", err)
		}
		user.RoleID = role.ID
		user.Role = *role
		changed["role"] = role.Name
	}
	if req.IsActive != nil && *req.IsActive != user.IsActive {
		if user.ID == actor.ID && !*req.IsActive {
			return nil, apperr.New(apperr.Validation, "You cannot deactivate your own account")
		}
		user.IsActive = *req.IsActive
		changed["is_active"] = *req.IsActive
	}

	if len(changed) == 0 {
		return user, nil
	}

	// Deactivation also kills live sessions so the account stops working
	// immediately, not at token expiry.
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.users.Update(txCtx, user); err != nil {
			return err
		}
		if active, ok := changed["is_active"].(bool); ok && !active {
			return s.sessions.DeleteAllForUser(txCtx, user.ID)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Store, "failed to update user", err)
	}

	s.audit.Record(ctx, &actor.ID, model.ActionProfileUpdated, model.ModuleUser, meta,
		map[string]interface{}{"user_id": user.ID.String(), "changes": changed})

	return user, nil
}

func (s *userService) Delete(ctx context.Context, actor *model.User, id uuid.UUID, meta RequestMeta) error {
	if id == actor.ID {
		return apperr.New(apperr.Validation, "You cannot delete your own account")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.sessions.DeleteAllForUser(txCtx, id); err != nil {
			return err
		}
		return s.users.Delete(txCtx, id)
	})
	if err != nil {
		return apperr.Wrap(apperr.Store, "failed to delete user", err)
	}

	s.audit.Record(ctx, &actor.ID, model.ActionProfileUpdated, model.ModuleUser, meta,
		map[string]interface{}{"user_id": id.String(), "username": user.Username, "deleted": true})
	return nil
}

// ResetPassword sets a new password without knowing the old one and signs the
// user out everywhere.
func (s *userService) ResetPassword(ctx context.Context, actor *model.User, id uuid.UUID, req ResetPasswordRequest, meta RequestMeta) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return apperr.New(apperr.Validation, err.Error())
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperr.Wrap(apperr.Store, "failed to hash password", err)
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.users.UpdatePasswordHash(txCtx, id, hash); err != nil {
			return err
		}
		return s.sessions.DeleteAllForUser(txCtx, id)
	})
	if err != nil {
		return apperr.Wrap(apperr.Store, "failed to reset password", err)
	}

	s.audit.Record(ctx, &actor.ID, model.ActionPasswordReset, model.ModuleUser, meta,
		map[string]interface{}{"user_id": id.String(), "username": user.Username})
	s.mail.SendPasswordChanged(user.Email, user.FullName)
	return nil
}
