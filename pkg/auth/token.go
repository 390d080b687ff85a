package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types. Access and refresh tokens are never interchangeable: a refresh
// token presented where an access token is required is rejected.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("token is invalid")
	ErrWrongTokenType = errors.New("wrong token type")
)

// Claims is the signed claim set carried by both token types.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair bundles a freshly issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // access token lifetime, seconds
}

// TokenIssuer mints and decodes HS256-signed tokens with independent access
// and refresh lifetimes.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenIssuer(secret []byte, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// AccessTTL exposes the configured access token lifetime (session expiry).
func (i *TokenIssuer) AccessTTL() time.Duration {
	return i.accessTTL
}

// RefreshTTL exposes the configured refresh token lifetime.
func (i *TokenIssuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}

// IssueAccess mints a standalone access token. Used by the refresh flow,
// which keeps the existing refresh token alive.
func (i *TokenIssuer) IssueAccess(userID, username, role string) (string, error) {
	now := time.Now()
	return i.sign(Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		Type:     TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	})
}

// IssuePair mints an access/refresh token pair for a user. The role claim is
// only embedded in the access token; refresh tokens carry identity alone.
func (i *TokenIssuer) IssuePair(userID, username, role string) (TokenPair, error) {
	now := time.Now()

	access, err := i.sign(Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		Type:     TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	})
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := i.sign(Claims{
		UserID:   userID,
		Username: username,
		Type:     TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshTTL)),
		},
	})
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(i.accessTTL.Seconds()),
	}, nil
}

func (i *TokenIssuer) sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Decode verifies the signature and expiry of a token of either type.
// Expired and malformed tokens fail with distinct errors so callers can
// branch on which.
func (i *TokenIssuer) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// DecodeAccess decodes a token and requires it to be an access token.
func (i *TokenIssuer) DecodeAccess(tokenString string) (*Claims, error) {
	return i.decodeTyped(tokenString, TokenTypeAccess)
}

// DecodeRefresh decodes a token and requires it to be a refresh token.
func (i *TokenIssuer) DecodeRefresh(tokenString string) (*Claims, error) {
	return i.decodeTyped(tokenString, TokenTypeRefresh)
}

func (i *TokenIssuer) decodeTyped(tokenString, wantType string) (*Claims, error) {
	claims, err := i.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != wantType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
