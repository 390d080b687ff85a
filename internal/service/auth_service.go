package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"commsdesk/internal/mailer"
	"commsdesk/internal/model"
	"commsdesk/internal/repository"
	"commsdesk/pkg/apperr"
	"commsdesk/pkg/auth"
	"commsdesk/pkg/ratelimit"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvalidCredentialsError is returned on a failed login so the boundary can
// surface how many attempts remain before the rate limiter locks the caller
// out.
type InvalidCredentialsError struct {
	Remaining int
}

func (e *InvalidCredentialsError) Error() string {
	return "invalid credentials"
}

// RegisterRequest carries a self-registration payload. RoleID is optional
// and defaults to the User role when empty.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	NIP      string `json:"nip"`
	RoleID   string `json:"role_id"`
}

// LoginRequest carries login credentials. Identifier accepts username or email.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// UpdateProfileRequest carries the self-service profile fields.
type UpdateProfileRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	NIP      string `json:"nip"`
}

// ChangePasswordRequest carries a password change for the current user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// LoginResult bundles the authenticated user with their fresh token pair.
type LoginResult struct {
	User   *model.User    `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

// AuthService implements registration, login with rate limiting, token
// refresh, logout and self-service profile management.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest, meta RequestMeta) (*model.User, error)
	Login(ctx context.Context, req LoginRequest, meta RequestMeta) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	Logout(ctx context.Context, user *model.User, accessToken string, meta RequestMeta) error
	Profile(ctx context.Context, userID uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, user *model.User, req UpdateProfileRequest, meta RequestMeta) (*model.User, error)
	ChangePassword(ctx context.Context, user *model.User, req ChangePasswordRequest, meta RequestMeta) error
}

type authService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	roles    repository.RoleRepository
	txm      repository.TransactionManager
	issuer   *auth.TokenIssuer
	limiter  ratelimit.LoginLimiter
	audit    AuditService
	mail     mailer.Mailer
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	roles repository.RoleRepository,
	txm repository.TransactionManager,
	issuer *auth.TokenIssuer,
	limiter ratelimit.LoginLimiter,
	audit AuditService,
	mail mailer.Mailer,
) AuthService {
	return &authService{
		users:    users,
		sessions: sessions,
		roles:    roles,
		txm:      txm,
		issuer:   issuer,
		limiter:  limiter,
		audit:    audit,
		mail:     mail,
	}
}

// Register creates a new account with the default User role. Uniqueness of
// username, email and NIP is checked up front so callers get a 409 with a
// field-specific message instead of a raw constraint violation.
func (s *authService) Register(ctx context.Context, req RegisterRequest, meta RequestMeta) (*model.User, error) {
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

	role, err := s.resolveRegisterRole(ctx, req.RoleID)
	if err != nil {
		return nil, err
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

	s.audit.Record(ctx, &user.ID, model.ActionUserRegistered, model.ModuleUser, meta,
		map[string]interface{}{"username": user.Username})
	s.mail.SendWelcome(user.Email, user.FullName)

	return user, nil
}

// resolveRegisterRole maps an optional role_id to a seeded role, falling
// back to the User role when none was supplied.
func (s *authService) resolveRegisterRole(ctx context.Context, roleID string) (*model.Role, error) {
	if roleID == "" {
		role, err := s.roles.GetByName(ctx, model.RoleUser)
		if err != nil {
			return nil, apperr.Wrap(apperr.Store, "default role missing", err)
		}
		return role, nil
	}

	id, err := uuid.Parse(roleID)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "Invalid role_id")
	}
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.Validation, "Invalid role_id")
		}
		return nil, apperr.Wrap(apperr.Store, "failed to look up role", err)
	}
	return role, nil
}

// Login authenticates by username or email under a per-IP rate limit. The
// limiter counter resets on success; stale password digests are transparently
// rehashed with the current parameters.
func (s *authService) Login(ctx context.Context, req LoginRequest, meta RequestMeta) (*LoginResult, error) {
	allowed, remaining, resetAt, err := s.limiter.Check(ctx, meta.IP)
	if err != nil {
		// A broken limiter store must not lock everyone out. Assume the
		// full budget so a failed attempt does not report zero remaining.
		log.Printf("login limiter check failed for %s: %v", meta.IP, err)
		allowed, remaining = true, s.limiter.Limit()
	}
	if !allowed {
		retry := int(time.Until(resetAt).Seconds())
		if retry < 1 {
			retry = 1
		}
		return nil, apperr.New(apperr.RateLimited,
			fmt.Sprintf("Too many login attempts. Try again in %d seconds", retry))
	}

	user, err := s.users.GetActiveByIdentifier(ctx, req.Identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, s.failLogin(ctx, meta.IP, remaining)
		}
		return nil, apperr.Wrap(apperr.Store, "failed to look up user", err)
	}

	ok, needsRehash, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		// A malformed stored digest is a data problem, not a bad password.
		log.Printf("stored digest for %s is unreadable: %v", user.Username, err)
		return nil, s.failLogin(ctx, meta.IP, remaining)
	}
	if !ok {
		return nil, s.failLogin(ctx, meta.IP, remaining)
	}

	if err := s.limiter.Reset(ctx, meta.IP); err != nil {
		log.Printf("login limiter reset failed for %s: %v", meta.IP, err)
	}

	if needsRehash {
		if newHash, hashErr := auth.HashPassword(req.Password); hashErr == nil {
			if err := s.users.UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
				log.Printf("password rehash failed for %s: %v", user.Username, err)
			}
		}
	}

	pair, err := s.issuer.IssuePair(user.ID.String(), user.Username, user.Role.Name)
	if err != nil {
		return nil, apperr.Wrap(apperr.Store, "failed to issue tokens", err)
	}

	session := &model.Session{
		UserID:       user.ID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		IPAddress:    meta.IP,
		UserAgent:    meta.UserAgent,
		ExpiresAt:    time.Now().Add(s.issuer.RefreshTTL()),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, apperr.Wrap(apperr.Store, "failed to create session", err)
	}

	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		log.Printf("failed to update last_login for %s: %v", user.Username, err)
	}
	user.LastLogin = &now

	s.audit.Record(ctx, &user.ID, model.ActionUserLogin, model.ModuleUser, meta, nil)
	s.mail.SendLoginNotification(user.Email, user.FullName, meta.IP, meta.UserAgent)

	return &LoginResult{User: user, Tokens: pair}, nil
}

// failLogin records the failed attempt and reports how many remain.
func (s *authService) failLogin(ctx context.Context, ip string, remaining int) error {
	if err := s.limiter.RecordFailure(ctx, ip); err != nil {
		log.Printf("login limiter record failed for %s: %v", ip, err)
	}
	left := remaining - 1
	if left < 0 {
		left = 0
	}
	return apperr.Wrap(apperr.Unauthenticated, "Invalid username or password",
		&InvalidCredentialsError{Remaining: left})
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself stays valid until its own expiry.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.issuer.DecodeRefresh(refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenExpired):
			return nil, apperr.New(apperr.Unauthenticated, "Refresh token has expired. Please login again")
		case errors.Is(err, auth.ErrWrongTokenType):
			return nil, apperr.New(apperr.Unauthenticated, "Invalid token type")
		default:
			return nil, apperr.New(apperr.Unauthenticated, "Invalid refresh token")
		}
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apperr.New(apperr.Unauthenticated, "Invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil || !user.IsActive {
		return nil, apperr.New(apperr.Unauthenticated, "User not found or inactive")
	}

	access, err := s.issuer.IssueAccess(user.ID.String(), user.Username, user.Role.Name)
	if err != nil {
		return nil, apperr.Wrap(apperr.Store, "failed to issue access token", err)
	}

	return &auth.TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.issuer.AccessTTL().Seconds()),
	}, nil
}

// Logout drops the session matching the presented access token.
func (s *authService) Logout(ctx context.Context, user *model.User, accessToken string, meta RequestMeta) error {
	if err := s.sessions.DeleteByAccessToken(ctx, user.ID, accessToken); err != nil {
		return apperr.Wrap(apperr.Store, "failed to delete session", err)
	}
	s.audit.Record(ctx, &user.ID, model.ActionUserLogout, model.ModuleUser, meta, nil)
	return nil
}

func (s *authService) Profile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "User not found")
		}
		return nil, apperr.Wrap(apperr.Store, "failed to load user", err)
	}
	return user, nil
}

// UpdateProfile applies the provided fields; blank fields are left unchanged.
func (s *authService) UpdateProfile(ctx context.Context, user *model.User, req UpdateProfileRequest, meta RequestMeta) (*model.User, error) {
	changed := map[string]interface{}{}

	if req.FullName != "" && req.FullName != user.FullName {
		if err := validateFullName(req.FullName); err != nil {
			return nil, err
		}
		user.FullName = req.FullName
		changed["full_name"] = req.FullName
	}

	if req.Email != "" && req.Email != user.Email {
		if err := validateEmail(req.Email); err != nil {
			return nil, err
		}
		if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
			return nil, apperr.New(apperr.Conflict, "Email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.Store, "failed to check email", err)
		}
		user.Email = req.Email
		user.EmailVerified = false
		changed["email"] = req.Email
	}

	if req.NIP != "" && (user.NIP == nil || req.NIP != *user.NIP) {
		if err := validateNIP(req.NIP); err != nil {
			return nil, err
		}
		if _, err := s.users.GetByNIP(ctx, req.NIP); err == nil {
			return nil, apperr.New(apperr.Conflict, "NIP already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.Store, "failed to check NIP", err)
		}
		nip := req.NIP
		user.NIP = &nip
		changed["nip"] = req.NIP
	}

	if len(changed) == 0 {
		return user, nil
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperr.Wrap(apperr.Store, "failed to update profile", err)
	}

	s.audit.Record(ctx, &user.ID, model.ActionProfileUpdated, model.ModuleUser, meta, changed)
	return user, nil
}

// ChangePassword verifies the current password, stores the new digest and
// signs the user out of every device. The hash update and the session purge
// commit in one transaction.
func (s *authService) ChangePassword(ctx context.Context, user *model.User, req ChangePasswordRequest, meta RequestMeta) error {
	ok, _, err := auth.VerifyPassword(user.PasswordHash, req.CurrentPassword)
	if err != nil || !ok {
		return apperr.New(apperr.Unauthenticated, "Current password is incorrect")
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return apperr.New(apperr.Validation, err.Error())
	}
	if req.NewPassword == req.CurrentPassword {
		return apperr.New(apperr.Validation, "New password must be different from the current password")
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperr.Wrap(apperr.Store, "failed to hash password", err)
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.users.UpdatePasswordHash(txCtx, user.ID, hash); err != nil {
			return err
		}
		return s.sessions.DeleteAllForUser(txCtx, user.ID)
	})
	if err != nil {
		return apperr.Wrap(apperr.Store, "failed to change password", err)
	}

	s.audit.Record(ctx, &user.ID, model.ActionPasswordChanged, model.ModuleUser, meta, nil)
	s.mail.SendPasswordChanged(user.Email, user.FullName)
	return nil
}
